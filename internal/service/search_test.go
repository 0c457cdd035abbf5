package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/koy0208/backendapi/internal/category"
	"github.com/koy0208/backendapi/internal/interfaces"
	"github.com/koy0208/backendapi/internal/model"

	"github.com/sirupsen/logrus"
)

// fakeAdapter 测试用平台适配器
type fakeAdapter struct {
	name    string
	items   []model.Item
	err     error
	calls   int
	lastReq interfaces.ProviderSearchRequest
}

func (f *fakeAdapter) GetName() string { return f.name }

func (f *fakeAdapter) SearchItems(_ context.Context, req interfaces.ProviderSearchRequest) ([]model.Item, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func item(code string, price, rank int, shop string) model.Item {
	return model.Item{ItemCode: code, ItemName: code, ItemPrice: price, Ranking: rank, Shop: shop}
}

func TestSearch_MergeSortedByPrice(t *testing.T) {
	rakuten := &fakeAdapter{name: model.ShopRakuten, items: []model.Item{
		item("r1", 3000, 1, model.ShopRakuten),
		item("r2", 500, 2, model.ShopRakuten),
	}}
	amazon := &fakeAdapter{name: model.ShopAmazon, items: []model.Item{
		item("a1", 1200, 1, model.ShopAmazon),
		item("a2", 500, 2, model.ShopAmazon),
		item("a3", 80, 3, model.ShopAmazon),
	}}
	svc := NewSearchService(category.NewMapper(), rakuten, amazon, testLogger())

	got, err := svc.Search(context.Background(), SearchParams{Keyword: "ベビーカー"})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	// 合并后条数 = 两平台之和
	if len(got) != 5 {
		t.Fatalf("len = %d", len(got))
	}
	// 价格非降序
	if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].ItemPrice < got[j].ItemPrice }) {
		t.Errorf("not sorted by price: %v", got)
	}
	// 同价（500）保持拼接时的相对顺序：楽天在前（稳定排序）
	if got[1].ItemCode != "r2" || got[2].ItemCode != "a2" {
		t.Errorf("tie order broken: %s, %s", got[1].ItemCode, got[2].ItemCode)
	}
	// 页内排名不因合并重新编号
	for _, it := range got {
		if it.Ranking < 1 {
			t.Errorf("ranking %d on %s", it.Ranking, it.ItemCode)
		}
	}
}

func TestSearch_TranslatesCategoryAndSort(t *testing.T) {
	rakuten := &fakeAdapter{name: model.ShopRakuten}
	amazon := &fakeAdapter{name: model.ShopAmazon}
	svc := NewSearchService(category.NewMapper(), rakuten, amazon, testLogger())

	_, err := svc.Search(context.Background(), SearchParams{
		Keyword:  "おむつ",
		Category: "シューズ",
		Sort:     "review",
		Page:     2,
	})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	if rakuten.lastReq.CategoryID != "200811" || rakuten.lastReq.SortToken != "-reviewAverage" {
		t.Errorf("rakuten req = %+v", rakuten.lastReq)
	}
	if amazon.lastReq.CategoryID != "2032360051" || amazon.lastReq.SortToken != "AvgCustomerReviews" {
		t.Errorf("amazon req = %+v", amazon.lastReq)
	}
	if rakuten.lastReq.Page != 2 || amazon.lastReq.Page != 2 {
		t.Errorf("page = %d, %d", rakuten.lastReq.Page, amazon.lastReq.Page)
	}
	// 默认价格区间
	if rakuten.lastReq.MinPrice != 0 || rakuten.lastReq.MaxPrice != 100000 {
		t.Errorf("price range = %d-%d", rakuten.lastReq.MinPrice, rakuten.lastReq.MaxPrice)
	}
}

func TestSearch_UnknownCategoryBeforeProviderCalls(t *testing.T) {
	rakuten := &fakeAdapter{name: model.ShopRakuten}
	amazon := &fakeAdapter{name: model.ShopAmazon}
	svc := NewSearchService(category.NewMapper(), rakuten, amazon, testLogger())

	_, err := svc.Search(context.Background(), SearchParams{Keyword: "x", Category: "not-a-category"})
	if !errors.Is(err, model.ErrUnknownCategory) {
		t.Fatalf("want ErrUnknownCategory, got %v", err)
	}
	// 校验失败时不允许发生任何平台外呼
	if rakuten.calls != 0 || amazon.calls != 0 {
		t.Errorf("provider called: rakuten=%d amazon=%d", rakuten.calls, amazon.calls)
	}
}

func TestSearch_UnsupportedSort(t *testing.T) {
	svc := NewSearchService(category.NewMapper(),
		&fakeAdapter{name: model.ShopRakuten}, &fakeAdapter{name: model.ShopAmazon}, testLogger())

	_, err := svc.Search(context.Background(), SearchParams{Keyword: "x", Sort: "cheapest"})
	if !errors.Is(err, model.ErrUnsupportedSort) {
		t.Fatalf("want ErrUnsupportedSort, got %v", err)
	}
}

func TestSearch_InvalidPriceRange(t *testing.T) {
	svc := NewSearchService(category.NewMapper(),
		&fakeAdapter{name: model.ShopRakuten}, &fakeAdapter{name: model.ShopAmazon}, testLogger())

	_, err := svc.Search(context.Background(), SearchParams{Keyword: "x", MinPrice: 5000, MaxPrice: 100})
	if !errors.Is(err, model.ErrInvalidPriceRange) {
		t.Fatalf("want ErrInvalidPriceRange, got %v", err)
	}
}

func TestSearch_DegradeOnSingleProviderFailure(t *testing.T) {
	rakuten := &fakeAdapter{
		name: model.ShopRakuten,
		err:  &model.ProviderError{Provider: model.ShopRakuten, Err: errors.New("接口返回500")},
	}
	amazon := &fakeAdapter{name: model.ShopAmazon, items: []model.Item{
		item("a1", 900, 1, model.ShopAmazon),
		item("a2", 300, 2, model.ShopAmazon),
	}}
	svc := NewSearchService(category.NewMapper(), rakuten, amazon, testLogger())

	got, err := svc.Search(context.Background(), SearchParams{Keyword: "x"})
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	// 降级结果仍然价格升序
	if got[0].ItemPrice != 300 || got[1].ItemPrice != 900 {
		t.Errorf("order: %d, %d", got[0].ItemPrice, got[1].ItemPrice)
	}
	for _, it := range got {
		if it.Shop != model.ShopAmazon {
			t.Errorf("unexpected shop %q", it.Shop)
		}
	}
}

func TestSearch_AllProvidersFailed(t *testing.T) {
	rakuten := &fakeAdapter{name: model.ShopRakuten, err: errors.New("timeout")}
	amazon := &fakeAdapter{name: model.ShopAmazon, err: errors.New("throttled")}
	svc := NewSearchService(category.NewMapper(), rakuten, amazon, testLogger())

	_, err := svc.Search(context.Background(), SearchParams{Keyword: "x"})
	var provErr *model.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("want ProviderError, got %v", err)
	}
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	svc := NewSearchService(category.NewMapper(),
		&fakeAdapter{name: model.ShopRakuten}, &fakeAdapter{name: model.ShopAmazon}, testLogger())

	got, err := svc.Search(context.Background(), SearchParams{Keyword: "存在しない商品xyz"})
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", got)
	}
}
