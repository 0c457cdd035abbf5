package amazon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/koy0208/backendapi/internal/config"
	"github.com/koy0208/backendapi/internal/interfaces"
	"github.com/koy0208/backendapi/internal/model"
	"github.com/koy0208/backendapi/internal/observability"
	"github.com/koy0208/backendapi/internal/utils/httpclient"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/sirupsen/logrus"
)

const (
	searchItemsTarget = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"
	searchItemsPath   = "/paapi5/searchitems"
	// reviewSortToken 排行代理用的排序：Amazon没有原生排行接口，以评价降序检索近似
	reviewSortToken = "AvgCustomerReviews"
)

type Adapter struct {
	cfg         *config.AmazonConfig
	marketplace marketplaceInfo
	httpClient  *http.Client
	signer      *v4.Signer
	logger      *logrus.Logger
}

func NewAmazonAdapter(cfg *config.AmazonConfig, logger *logrus.Logger) *Adapter {
	mp, ok := marketplaces[strings.ToUpper(cfg.Country)]
	if !ok {
		logger.WithField("country", cfg.Country).Warn("未登录的市场国家代码，回退到JP")
		mp = marketplaces["JP"]
	}
	return &Adapter{
		cfg:         cfg,
		marketplace: mp,
		httpClient:  httpclient.NewHTTPClient(cfg.Timeout, cfg.Proxy, logger),
		signer:      v4.NewSigner(),
		logger:      logger,
	}
}

// GetName ========== 实现CatalogAdapter接口 ==========
func (a *Adapter) GetName() string {
	return model.ShopAmazon
}

// searchItemsPayload SearchItems请求体
type searchItemsPayload struct {
	Keywords     string   `json:"Keywords"`
	BrowseNodeID string   `json:"BrowseNodeId,omitempty"`
	SortBy       string   `json:"SortBy,omitempty"`
	ItemPage     int      `json:"ItemPage,omitempty"`
	MinPrice     int      `json:"MinPrice,omitempty"`
	MaxPrice     int      `json:"MaxPrice,omitempty"`
	PartnerTag   string   `json:"PartnerTag"`
	PartnerType  string   `json:"PartnerType"`
	Marketplace  string   `json:"Marketplace"`
	Resources    []string `json:"Resources"`
}

// 归一化所需的全部资源
var searchResources = []string{
	"ItemInfo.Title",
	"ItemInfo.Features",
	"Offers.Listings.Price",
	"Images.Primary.Large",
}

// rawItem PA-API原始商品
type rawItem struct {
	ASIN          string    `json:"ASIN"`
	DetailPageURL string    `json:"DetailPageURL"`
	ItemInfo      *itemInfo `json:"ItemInfo"`
	Offers        *offers   `json:"Offers"`
	Images        *images   `json:"Images"`
}

type itemInfo struct {
	Title    *displayValue  `json:"Title"`
	Features *displayValues `json:"Features"`
}

type displayValue struct {
	DisplayValue string `json:"DisplayValue"`
}

type displayValues struct {
	DisplayValues []string `json:"DisplayValues"`
}

type offers struct {
	Listings []listing `json:"Listings"`
}

type listing struct {
	Price *price `json:"Price"`
}

type price struct {
	Amount float64 `json:"Amount"`
}

type images struct {
	Primary *primaryImage `json:"Primary"`
}

type primaryImage struct {
	Large *largeImage `json:"Large"`
}

type largeImage struct {
	URL string `json:"URL"`
}

// searchItemsResponse SearchItems响应体
type searchItemsResponse struct {
	SearchResult *struct {
		Items []rawItem `json:"Items"`
	} `json:"SearchResult"`
	Errors []struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Errors"`
}

// SearchItems 商品检索：请求参数已由上层翻译为browse node与Amazon排序token
func (a *Adapter) SearchItems(ctx context.Context, req interfaces.ProviderSearchRequest) ([]model.Item, error) {
	payload := searchItemsPayload{
		Keywords:     req.Keyword,
		BrowseNodeID: req.CategoryID,
		SortBy:       req.SortToken,
		ItemPage:     req.Page,
		MinPrice:     req.MinPrice,
		MaxPrice:     req.MaxPrice,
		PartnerTag:   a.cfg.AssociateID,
		PartnerType:  "Associates",
		Marketplace:  a.marketplace.Marketplace,
		Resources:    searchResources,
	}
	raws, err := a.searchItems(ctx, payload)
	if err != nil {
		return nil, err
	}

	// 页内排名按返回顺序从1编号
	items := make([]model.Item, 0, len(raws))
	for i, raw := range raws {
		item, err := Normalize(raw, i+1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ReviewRankedSearch 排行代理检索：按评价降序，排名=页内序号+（页码-1）×每页条数
// 这是对"Amazon没有类目排行接口"的文档化近似，不是楽天排行的等价物
func (a *Adapter) ReviewRankedSearch(ctx context.Context, keyword, categoryID string, page int) ([]model.Item, error) {
	payload := searchItemsPayload{
		Keywords:     keyword,
		BrowseNodeID: categoryID,
		SortBy:       reviewSortToken,
		ItemPage:     page,
		PartnerTag:   a.cfg.AssociateID,
		PartnerType:  "Associates",
		Marketplace:  a.marketplace.Marketplace,
		Resources:    searchResources,
	}
	raws, err := a.searchItems(ctx, payload)
	if err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(raws))
	for i, raw := range raws {
		item, err := Normalize(raw, Rank(i, page, defaultPageSize))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// defaultPageSize PA-API SearchItems每页固定10条
const defaultPageSize = 10

// Rank 跨页排名：页内序号（0起）+1，再加上前面页的条数
func Rank(index, page, pageSize int) int {
	return index + 1 + (page-1)*pageSize
}

// searchItems 发送签名后的SearchItems请求
func (a *Adapter) searchItems(ctx context.Context, payload searchItemsPayload) ([]rawItem, error) {
	observability.ProviderRequestsTotal.WithLabelValues("amazon").Inc()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &model.ProviderError{Provider: model.ShopAmazon, Err: err}
	}

	endpoint := "https://" + a.marketplace.Host + searchItemsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &model.ProviderError{Provider: model.ShopAmazon, Err: err}
	}
	if err := signRequest(ctx, a.signer, req, body,
		a.cfg.AccessKey, a.cfg.SecretKey, a.marketplace.Region, searchItemsTarget); err != nil {
		return nil, &model.ProviderError{Provider: model.ShopAmazon, Err: fmt.Errorf("请求签名失败: %w", err)}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		observability.ProviderFailuresTotal.WithLabelValues("amazon").Inc()
		return nil, &model.ProviderError{Provider: model.ShopAmazon, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.ProviderFailuresTotal.WithLabelValues("amazon").Inc()
		return nil, &model.ProviderError{Provider: model.ShopAmazon, Err: err}
	}

	var parsed searchItemsResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		observability.ProviderFailuresTotal.WithLabelValues("amazon").Inc()
		return nil, &model.ProviderError{Provider: model.ShopAmazon, Err: fmt.Errorf("解析响应失败: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		observability.ProviderFailuresTotal.WithLabelValues("amazon").Inc()
		msg := fmt.Sprintf("接口返回%d", resp.StatusCode)
		if len(parsed.Errors) > 0 {
			msg = fmt.Sprintf("%s: %s %s", msg, parsed.Errors[0].Code, parsed.Errors[0].Message)
		}
		return nil, &model.ProviderError{Provider: model.ShopAmazon, Err: fmt.Errorf("%s", msg)}
	}
	if parsed.SearchResult == nil {
		return []rawItem{}, nil
	}
	return parsed.SearchResult.Items, nil
}

// Normalize Amazon原始商品 → 统一商品模型。纯函数，不做任何I/O
// Amazon无积分体系，积分字段固定为0
func Normalize(raw rawItem, rank int) (model.Item, error) {
	if raw.ASIN == "" {
		return model.Item{}, &model.MalformedRecordError{Provider: model.ShopAmazon, Field: "ASIN"}
	}
	if raw.ItemInfo == nil || raw.ItemInfo.Title == nil || raw.ItemInfo.Title.DisplayValue == "" {
		return model.Item{}, &model.MalformedRecordError{Provider: model.ShopAmazon, Field: "ItemInfo.Title"}
	}
	// 价格取第一个在售报价
	if raw.Offers == nil || len(raw.Offers.Listings) == 0 || raw.Offers.Listings[0].Price == nil {
		return model.Item{}, &model.MalformedRecordError{Provider: model.ShopAmazon, Field: "Offers.Listings.Price"}
	}
	price := int(math.Round(raw.Offers.Listings[0].Price.Amount))
	if price < 0 {
		return model.Item{}, &model.MalformedRecordError{Provider: model.ShopAmazon, Field: "Offers.Listings.Price"}
	}
	if raw.Images == nil || raw.Images.Primary == nil || raw.Images.Primary.Large == nil {
		return model.Item{}, &model.MalformedRecordError{Provider: model.ShopAmazon, Field: "Images.Primary.Large"}
	}

	// Features是可选的商品卖点列表，缺失不算异常，说明留空
	description := ""
	if raw.ItemInfo.Features != nil {
		description = strings.Join(raw.ItemInfo.Features.DisplayValues, "\n")
	}
	if rank < 1 {
		rank = 1
	}

	return model.Item{
		ItemCode:        raw.ASIN,
		ItemName:        raw.ItemInfo.Title.DisplayValue,
		ItemDescription: description,
		ItemPrice:       price,
		ItemURL:         raw.DetailPageURL,
		ItemImg:         raw.Images.Primary.Large.URL,
		ItemPointRate:   0,
		ItemPoint:       0,
		Ranking:         rank,
		Shop:            model.ShopAmazon,
	}, nil
}
