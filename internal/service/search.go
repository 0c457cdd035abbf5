package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/koy0208/backendapi/internal/category"
	"github.com/koy0208/backendapi/internal/interfaces"
	"github.com/koy0208/backendapi/internal/model"

	"github.com/sirupsen/logrus"
)

// 检索默认值
const (
	defaultMinPrice = 0
	defaultMaxPrice = 100000
	defaultSort     = "standard"
)

// SearchParams 商品检索入参
type SearchParams struct {
	Keyword  string // 必填关键词
	Category string // 类目标签（空则为"全て"）
	MinPrice int    // 价格下限
	MaxPrice int    // 价格上限（0按默认上限处理）
	Sort     string // 排序方式：standard/min_price/max_price/review
	Page     int    // 页码（1起）
}

// SearchService 跨平台检索合并服务
// 两个平台并发外呼，归一化后拼接，按价格升序稳定排序——价格升序是唯一保证的输出顺序，
// sort参数只影响各平台自己的选品与翻页，不影响最终呈现顺序
type SearchService struct {
	mapper  *category.Mapper
	rakuten interfaces.CatalogAdapter
	amazon  interfaces.CatalogAdapter
	logger  *logrus.Logger
}

func NewSearchService(mapper *category.Mapper, rakuten, amazon interfaces.CatalogAdapter, logger *logrus.Logger) *SearchService {
	return &SearchService{
		mapper:  mapper,
		rakuten: rakuten,
		amazon:  amazon,
		logger:  logger,
	}
}

// providerResult 单平台外呼结果
type providerResult struct {
	name  string
	items []model.Item
	err   error
}

// Search 跨平台检索：校验 → 并发外呼 → 归并 → 价格升序
func (s *SearchService) Search(ctx context.Context, p SearchParams) ([]model.Item, error) {
	// 1. 入参兜底
	if p.Category == "" {
		p.Category = category.DefaultCategory
	}
	if p.Sort == "" {
		p.Sort = defaultSort
	}
	if p.MaxPrice == 0 {
		p.MaxPrice = defaultMaxPrice
	}
	if p.MinPrice < 0 {
		p.MinPrice = defaultMinPrice
	}
	if p.Page < 1 {
		p.Page = 1
	}

	// 2. 类目/排序/价格区间必须先于任何平台外呼校验通过
	ids, err := s.mapper.SearchCategory(p.Category)
	if err != nil {
		return nil, err
	}
	tokens, err := s.mapper.Sort(p.Sort)
	if err != nil {
		return nil, err
	}
	if p.MinPrice > p.MaxPrice {
		return nil, model.ErrInvalidPriceRange
	}

	// 3. 两个平台并发外呼（相互独立，结果按值归并，与完成顺序无关）
	requests := []struct {
		adapter interfaces.CatalogAdapter
		req     interfaces.ProviderSearchRequest
	}{
		{s.rakuten, interfaces.ProviderSearchRequest{
			Keyword:    p.Keyword,
			CategoryID: strconv.Itoa(ids.Rakuten),
			SortToken:  tokens.Rakuten,
			MinPrice:   p.MinPrice,
			MaxPrice:   p.MaxPrice,
			Page:       p.Page,
		}},
		{s.amazon, interfaces.ProviderSearchRequest{
			Keyword:    p.Keyword,
			CategoryID: ids.Amazon,
			SortToken:  tokens.Amazon,
			MinPrice:   p.MinPrice,
			MaxPrice:   p.MaxPrice,
			Page:       p.Page,
		}},
	}

	results := make([]providerResult, len(requests))
	var wg sync.WaitGroup
	for i, r := range requests {
		wg.Add(1)
		go func(i int, adapter interfaces.CatalogAdapter, req interfaces.ProviderSearchRequest) {
			defer wg.Done()
			items, err := adapter.SearchItems(ctx, req)
			results[i] = providerResult{name: adapter.GetName(), items: items, err: err}
		}(i, r.adapter, r.req)
	}
	wg.Wait()

	// 4. 单平台失败时降级：返回其余平台的结果；全部失败才整体报错
	merged := make([]model.Item, 0)
	var failures []error
	for _, r := range results {
		if r.err != nil {
			s.logger.WithError(r.err).WithField("provider", r.name).Warn("平台检索失败，降级返回其余平台结果")
			failures = append(failures, r.err)
			continue
		}
		merged = append(merged, r.items...)
	}
	if len(failures) == len(results) {
		return nil, &model.ProviderError{Provider: "all", Err: errors.Join(failures...)}
	}

	// 5. 价格升序稳定排序（同价保持拼接时的相对顺序；页内排名不重新编号）
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ItemPrice < merged[j].ItemPrice
	})
	return merged, nil
}
