package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koy0208/backendapi/internal/category"
	"github.com/koy0208/backendapi/internal/interfaces"
	"github.com/koy0208/backendapi/internal/model"
	"github.com/koy0208/backendapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// stubAdapter 测试用平台适配器
type stubAdapter struct {
	name  string
	items []model.Item
	err   error
}

func (s *stubAdapter) GetName() string { return s.name }

func (s *stubAdapter) SearchItems(_ context.Context, _ interfaces.ProviderSearchRequest) ([]model.Item, error) {
	return s.items, s.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newSearchRouter(rakuten, amazon interfaces.CatalogAdapter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewSearchService(category.NewMapper(), rakuten, amazon, testLogger())
	handler := NewSearchHandler(svc, testLogger())
	r := gin.New()
	r.GET("/search_item", handler.SearchItem)
	return r
}

func TestSearchItem_OK(t *testing.T) {
	rakuten := &stubAdapter{name: model.ShopRakuten, items: []model.Item{
		{ItemCode: "r1", ItemPrice: 2000, Shop: model.ShopRakuten},
	}}
	amazon := &stubAdapter{name: model.ShopAmazon, items: []model.Item{
		{ItemCode: "a1", ItemPrice: 1000, Shop: model.ShopAmazon},
	}}
	r := newSearchRouter(rakuten, amazon)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search_item?keyword=抱っこ紐&category=全て&sort=standard", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Result []model.Item `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// 价格升序合并
	if len(body.Result) != 2 || body.Result[0].ItemCode != "a1" {
		t.Errorf("result = %+v", body.Result)
	}
}

func TestSearchItem_KeywordRequired(t *testing.T) {
	r := newSearchRouter(&stubAdapter{name: model.ShopRakuten}, &stubAdapter{name: model.ShopAmazon})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search_item?category=全て", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSearchItem_UnknownCategory(t *testing.T) {
	r := newSearchRouter(&stubAdapter{name: model.ShopRakuten}, &stubAdapter{name: model.ShopAmazon})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search_item?keyword=x&category=存在しない", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSearchItem_AllProvidersDown(t *testing.T) {
	down := errors.New("connection refused")
	r := newSearchRouter(
		&stubAdapter{name: model.ShopRakuten, err: down},
		&stubAdapter{name: model.ShopAmazon, err: down},
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search_item?keyword=x&category=全て", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"未知类目", model.ErrUnknownCategory, http.StatusBadRequest},
		{"不支持的排序", model.ErrUnsupportedSort, http.StatusBadRequest},
		{"价格区间非法", model.ErrInvalidPriceRange, http.StatusBadRequest},
		{"月份非法", model.ErrInvalidMonth, http.StatusBadRequest},
		{"查询超时", errors.Join(errors.New("wrap"), model.ErrQueryTimeout), http.StatusGatewayTimeout},
		{"平台故障", &model.ProviderError{Provider: "all", Err: errors.New("down")}, http.StatusBadGateway},
		{"查询执行失败", &model.QueryExecutionError{State: "FAILED"}, http.StatusBadGateway},
		{"未分类错误", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
