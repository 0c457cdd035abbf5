package api

import (
	"net/http"
	"strconv"

	"github.com/koy0208/backendapi/internal/repository"
	"github.com/koy0208/backendapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RankingHandler 类目排行查询接口
type RankingHandler struct {
	rankingService *service.RankingService
	runRepo        *repository.SnapshotRunRepository
	logger         *logrus.Logger
}

func NewRankingHandler(rankingService *service.RankingService, runRepo *repository.SnapshotRunRepository, logger *logrus.Logger) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
		runRepo:        runRepo,
		logger:         logger,
	}
}

// Ranking 类目排行接口
// GET /ranking?get_month=2024-01&category=チャイルドシート&min_price=0&max_price=100000
func (h *RankingHandler) Ranking(c *gin.Context) {
	getMonth := c.Query("get_month")
	categoryLabel := c.Query("category")
	if getMonth == "" || categoryLabel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "get_month and category are required"})
		return
	}

	minPrice, _ := strconv.Atoi(c.DefaultQuery("min_price", "0"))
	maxPrice, _ := strconv.Atoi(c.DefaultQuery("max_price", "0"))

	params := service.RankingParams{
		GetMonth: getMonth,
		Category: categoryLabel,
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}

	envelope, err := h.rankingService.CategoryRanking(c.Request.Context(), params)
	if err != nil {
		h.logger.WithError(err).Error("Ranking failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, envelope)
}

// SnapshotRuns 快照构建履历接口（运维用）
// GET /snapshot_runs?limit=20
func (h *RankingHandler) SnapshotRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.runRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("SnapshotRuns failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": runs})
}
