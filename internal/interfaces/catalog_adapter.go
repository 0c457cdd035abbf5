package interfaces

import (
	"context"

	"github.com/koy0208/backendapi/internal/model"
)

// ProviderSearchRequest 已解析好平台专属参数的检索请求
// 类目ID与排序token由 category.Mapper 预先翻译，适配器不做二次映射
type ProviderSearchRequest struct {
	Keyword    string // 检索关键词
	CategoryID string // 平台专属类目ID（楽天genreId / Amazon browse node）
	SortToken  string // 平台专属排序token
	MinPrice   int    // 价格下限
	MaxPrice   int    // 价格上限
	Page       int    // 页码（1起）
}

// CatalogAdapter 所有商品平台必须实现的核心接口
type CatalogAdapter interface {
	GetName() string                                                                  // 平台名称（model.ShopRakuten / model.ShopAmazon）
	SearchItems(ctx context.Context, req ProviderSearchRequest) ([]model.Item, error) // 检索并归一化为统一商品模型
}

// RankingFetcher 提供原生类目排行接口的平台（楽天）
type RankingFetcher interface {
	CategoryRanking(ctx context.Context, categoryID string, page int) ([]model.Item, error)
}

// RankedSearcher 无原生排行接口的平台（Amazon）：按评价降序检索近似排行
type RankedSearcher interface {
	ReviewRankedSearch(ctx context.Context, keyword, categoryID string, page int) ([]model.Item, error)
}
