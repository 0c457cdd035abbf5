package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/koy0208/backendapi/internal/category"
	"github.com/koy0208/backendapi/internal/config"
	"github.com/koy0208/backendapi/internal/interfaces"
	"github.com/koy0208/backendapi/internal/model"

	"github.com/sirupsen/logrus"
)

// rankingLimit 排行接口只返回各店铺的前20条
const rankingLimit = 20

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// RankingParams 类目排行入参
type RankingParams struct {
	GetMonth string // 快照月份 YYYY-MM
	Category string // 类目标签
	MinPrice int    // 价格下限
	MaxPrice int    // 价格上限（0按默认上限处理）
}

// QueryEnvelope 排行接口响应外壳
type QueryEnvelope struct {
	StatusCode int                 `json:"statusCode"`
	Result     []map[string]string `json:"result"`
}

// RankingService 类目排行查询服务
// 排名在查询时按shop分区用窗口函数重新编号（快照里的ranking只是采集页位置）
type RankingService struct {
	mapper *category.Mapper
	runner interfaces.QueryRunner
	cfg    *config.AthenaConfig
	logger *logrus.Logger
}

func NewRankingService(mapper *category.Mapper, runner interfaces.QueryRunner, cfg *config.AthenaConfig, logger *logrus.Logger) *RankingService {
	return &RankingService{
		mapper: mapper,
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
}

// CategoryRanking 查询某月某类目的店铺别排行
func (s *RankingService) CategoryRanking(ctx context.Context, p RankingParams) (*QueryEnvelope, error) {
	// 1. 入参校验（先于任何远程调用）
	if !monthPattern.MatchString(p.GetMonth) {
		return nil, fmt.Errorf("月份%q: %w", p.GetMonth, model.ErrInvalidMonth)
	}
	if _, err := s.mapper.RankingCategory(p.Category); err != nil {
		return nil, err
	}
	if p.MaxPrice == 0 {
		p.MaxPrice = defaultMaxPrice
	}
	if p.MinPrice < 0 || p.MinPrice > p.MaxPrice {
		return nil, model.ErrInvalidPriceRange
	}

	// 2. 组装窗口函数查询并执行
	query := s.buildQuery(p)
	records, err := s.runner.RunQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	if records == nil {
		records = []map[string]string{}
	}
	return &QueryEnvelope{StatusCode: 200, Result: records}, nil
}

// buildQuery 组装排行查询SQL
func (s *RankingService) buildQuery(p RankingParams) string {
	return fmt.Sprintf(`
    SELECT
        item_code,
        item_name,
        item_description,
        CAST(item_price AS int) AS item_price,
        item_url,
        item_img,
        item_point_rate,
        CAST(item_point AS int) AS item_point,
        shop,
        get_month,
        category,
        CAST(ROW_NUMBER()OVER(PARTITION BY shop ORDER BY ranking) AS int) AS ranking
    FROM %s.%s
    WHERE category = '%s' AND item_price BETWEEN %d AND %d AND get_month = '%s'
    ORDER BY ranking
    LIMIT %d`,
		s.cfg.Database, s.cfg.Table,
		escapeLiteral(p.Category), p.MinPrice, p.MaxPrice, escapeLiteral(p.GetMonth),
		rankingLimit,
	)
}

// escapeLiteral 单引号转义（类目标签来自白名单，此处只是兜底）
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
