package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/koy0208/backendapi/internal/model"
	"github.com/koy0208/backendapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SearchHandler 跨平台商品检索接口
type SearchHandler struct {
	searchService *service.SearchService
	logger        *logrus.Logger
}

func NewSearchHandler(searchService *service.SearchService, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		logger:        logger,
	}
}

// SearchItem 商品检索接口
// GET /search_item?keyword=抱っこ紐&category=全て&min_price=0&max_price=100000&sort=standard&page=1
// 结果恒为价格升序；空结果返回200与空数组，与请求非法/上游故障可区分
func (h *SearchHandler) SearchItem(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}

	minPrice, _ := strconv.Atoi(c.DefaultQuery("min_price", "0"))
	maxPrice, _ := strconv.Atoi(c.DefaultQuery("max_price", "0"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	params := service.SearchParams{
		Keyword:  keyword,
		Category: c.Query("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.Query("sort"),
		Page:     page,
	}

	items, err := h.searchService.Search(c.Request.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("SearchItem failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": items})
}

// statusForError 错误分类 → HTTP状态码
func statusForError(err error) int {
	var provErr *model.ProviderError
	var queryErr *model.QueryExecutionError
	switch {
	case errors.Is(err, model.ErrUnknownCategory),
		errors.Is(err, model.ErrUnsupportedSort),
		errors.Is(err, model.ErrInvalidPriceRange),
		errors.Is(err, model.ErrInvalidMonth):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrQueryTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &provErr), errors.As(err, &queryErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
