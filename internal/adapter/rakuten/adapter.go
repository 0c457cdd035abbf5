package rakuten

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/koy0208/backendapi/internal/config"
	"github.com/koy0208/backendapi/internal/interfaces"
	"github.com/koy0208/backendapi/internal/model"
	"github.com/koy0208/backendapi/internal/observability"
	"github.com/koy0208/backendapi/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// captionDelimiter 商品说明中的面包屑分隔符，其最后一次出现之前的内容全部去除
const captionDelimiter = "＞"

type Adapter struct {
	cfg        *config.RakutenConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewRakutenAdapter(cfg *config.RakutenConfig, logger *logrus.Logger) *Adapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg.Timeout, cfg.Proxy, logger),
		logger:     logger,
	}
}

// GetName ========== 实现CatalogAdapter接口 ==========
func (a *Adapter) GetName() string {
	return model.ShopRakuten
}

// rawItem 楽天API原始商品（formatVersion=2）
type rawItem struct {
	ItemCode        string      `json:"itemCode"`
	ItemName        string      `json:"itemName"`
	ItemCaption     string      `json:"itemCaption"`
	ItemPrice       json.Number `json:"itemPrice"` // 接口偶发返回字符串，统一按Number解析
	ItemURL         string      `json:"itemUrl"`
	MediumImageURLs []string    `json:"mediumImageUrls"`
	PointRate       float64     `json:"pointRate"`
	Rank            int         `json:"rank"` // 仅排行接口返回
}

// apiResponse 检索/排行接口的通用响应外壳
type apiResponse struct {
	Items            []rawItem `json:"Items"`
	Error            string    `json:"error"`
	ErrorDescription string    `json:"error_description"`
}

// SearchItems 商品检索：请求参数已由上层翻译为楽天专属的genreId与排序token
func (a *Adapter) SearchItems(ctx context.Context, req interfaces.ProviderSearchRequest) ([]model.Item, error) {
	params := url.Values{}
	params.Set("applicationId", a.cfg.ApplicationID)
	params.Set("formatVersion", "2")
	params.Set("keyword", req.Keyword)
	params.Set("format", "json")
	params.Set("genreId", req.CategoryID)
	params.Set("maxPrice", strconv.Itoa(req.MaxPrice))
	params.Set("minPrice", strconv.Itoa(req.MinPrice))
	params.Set("sort", req.SortToken)
	params.Set("affiliateId", a.cfg.AffiliateID)
	params.Set("page", strconv.Itoa(req.Page))
	params.Set("carrier", "2")

	resp, err := a.get(ctx, a.cfg.SearchAPIURL, params)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &model.ProviderError{
			Provider: model.ShopRakuten,
			Err:      fmt.Errorf("接口错误%s: %s", resp.Error, resp.ErrorDescription),
		}
	}

	// 页内排名按返回顺序从1编号
	items := make([]model.Item, 0, len(resp.Items))
	for i, raw := range resp.Items {
		item, err := Normalize(raw, i+1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// CategoryRanking ジャンル排行接口：商品自带rank字段，直接采用
// 接口级错误（ジャンル不存在、超出页数等）按空页处理——空页即该类目排行的终点
func (a *Adapter) CategoryRanking(ctx context.Context, categoryID string, page int) ([]model.Item, error) {
	params := url.Values{}
	params.Set("applicationId", a.cfg.ApplicationID)
	params.Set("formatVersion", "2")
	params.Set("genreId", categoryID)
	params.Set("affiliateId", a.cfg.AffiliateID)
	params.Set("format", "json")
	params.Set("page", strconv.Itoa(page))

	resp, err := a.get(ctx, a.cfg.RankingAPIURL, params)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		a.logger.WithFields(logrus.Fields{
			"genre_id": categoryID,
			"page":     page,
			"error":    resp.Error,
		}).Warn("楽天排行接口返回错误，按空页处理")
		return []model.Item{}, nil
	}

	items := make([]model.Item, 0, len(resp.Items))
	for _, raw := range resp.Items {
		item, err := Normalize(raw, raw.Rank)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// get 发送GET请求并解析响应外壳
func (a *Adapter) get(ctx context.Context, apiURL string, params url.Values) (*apiResponse, error) {
	observability.ProviderRequestsTotal.WithLabelValues("rakuten").Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &model.ProviderError{Provider: model.ShopRakuten, Err: err}
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		observability.ProviderFailuresTotal.WithLabelValues("rakuten").Inc()
		return nil, &model.ProviderError{Provider: model.ShopRakuten, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		observability.ProviderFailuresTotal.WithLabelValues("rakuten").Inc()
		return nil, &model.ProviderError{
			Provider: model.ShopRakuten,
			Err:      fmt.Errorf("接口返回%d", resp.StatusCode),
		}
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		observability.ProviderFailuresTotal.WithLabelValues("rakuten").Inc()
		return nil, &model.ProviderError{Provider: model.ShopRakuten, Err: fmt.Errorf("解析响应失败: %w", err)}
	}
	return &body, nil
}

// Normalize 楽天原始商品 → 统一商品模型。纯函数，不做任何I/O
func Normalize(raw rawItem, rank int) (model.Item, error) {
	if raw.ItemCode == "" {
		return model.Item{}, &model.MalformedRecordError{Provider: model.ShopRakuten, Field: "itemCode"}
	}
	if raw.ItemName == "" {
		return model.Item{}, &model.MalformedRecordError{Provider: model.ShopRakuten, Field: "itemName"}
	}
	price, err := raw.ItemPrice.Int64()
	if err != nil || price < 0 {
		return model.Item{}, &model.MalformedRecordError{Provider: model.ShopRakuten, Field: "itemPrice"}
	}
	if len(raw.MediumImageURLs) == 0 {
		return model.Item{}, &model.MalformedRecordError{Provider: model.ShopRakuten, Field: "mediumImageUrls"}
	}
	if rank < 1 {
		rank = 1
	}

	return model.Item{
		ItemCode:        raw.ItemCode,
		ItemName:        raw.ItemName,
		ItemDescription: stripCaptionPrefix(raw.ItemCaption),
		ItemPrice:       int(price),
		ItemURL:         raw.ItemURL,
		ItemImg:         raw.MediumImageURLs[0], // 取首张图作为代表图
		ItemPointRate:   raw.PointRate,
		ItemPoint:       Point(int(price), raw.PointRate),
		Ranking:         rank,
		Shop:            model.ShopRakuten,
	}, nil
}

// stripCaptionPrefix 去除说明开头的类目面包屑（最后一个＞及其之前的全部内容）
func stripCaptionPrefix(caption string) string {
	if idx := strings.LastIndex(caption, captionDelimiter); idx >= 0 {
		return caption[idx+len(captionDelimiter):]
	}
	return caption
}

// Point 积分计算：税抜价格（价格/1.1，银行家舍入）以100为积分基数取整，再乘积分倍率
func Point(price int, rate float64) int {
	taxExcluded := math.RoundToEven(float64(price) / 1.1)
	basis := int(taxExcluded) / 100
	return int(float64(basis) * rate)
}
