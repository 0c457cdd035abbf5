package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/koy0208/backendapi/internal/category"
	"github.com/koy0208/backendapi/internal/config"
	"github.com/koy0208/backendapi/internal/interfaces"
	"github.com/koy0208/backendapi/internal/model"
	"github.com/koy0208/backendapi/internal/observability"
	"github.com/koy0208/backendapi/internal/repository"

	"github.com/sirupsen/logrus"
)

// SnapshotService 排行快照批处理：每月离线构建，不在请求路径上
// 楽天走原生ジャンル排行接口；Amazon没有排行接口，用评价降序检索近似排行
type SnapshotService struct {
	mapper   *category.Mapper
	rakuten  interfaces.RankingFetcher
	amazon   interfaces.RankedSearcher
	store    interfaces.BlobStore
	runner   interfaces.QueryRunner
	runs     *repository.SnapshotRunRepository
	snapCfg  *config.SnapshotConfig
	queryCfg *config.AthenaConfig
	storCfg  *config.StorageConfig
	logger   *logrus.Logger
	now      func() time.Time // 测试可替换
}

func NewSnapshotService(
	mapper *category.Mapper,
	rakuten interfaces.RankingFetcher,
	amazon interfaces.RankedSearcher,
	store interfaces.BlobStore,
	runner interfaces.QueryRunner,
	runs *repository.SnapshotRunRepository,
	cfg *config.Config,
	logger *logrus.Logger,
) *SnapshotService {
	return &SnapshotService{
		mapper:   mapper,
		rakuten:  rakuten,
		amazon:   amazon,
		store:    store,
		runner:   runner,
		runs:     runs,
		snapCfg:  &cfg.Snapshot,
		queryCfg: &cfg.Athena,
		storCfg:  &cfg.Storage,
		logger:   logger,
		now:      time.Now,
	}
}

// BuildSnapshot 构建一个类目的当月排行快照并落S3
// 同一(category, item_code, get_month)键重跑即覆盖写，天然幂等
func (s *SnapshotService) BuildSnapshot(ctx context.Context, label string) error {
	ids, err := s.mapper.RankingCategory(label)
	if err != nil {
		return err
	}
	month := s.now().Format("2006-01")

	var run *model.SnapshotRun
	if s.runs != nil {
		if run, err = s.runs.Start(ctx, label, month); err != nil {
			s.logger.WithError(err).Warn("快照履历登记失败，继续构建")
		}
	}

	items, err := s.collect(ctx, label, ids)
	if err == nil {
		err = s.persist(ctx, label, month, items)
	}

	if s.runs != nil && run != nil {
		counts := map[string]int{}
		for _, it := range items {
			counts[it.Shop]++
		}
		if ferr := s.runs.Finish(ctx, run, counts, err); ferr != nil {
			s.logger.WithError(ferr).Warn("快照履历更新失败")
		}
	}
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"category": label,
		"month":    month,
		"items":    len(items),
	}).Info("类目快照构建完成")
	return nil
}

// collect 翻页采集两个平台的排行记录
func (s *SnapshotService) collect(ctx context.Context, label string, ids category.IDs) ([]model.Item, error) {
	var items []model.Item

	for page := 1; page <= s.snapCfg.MaxPages; page++ {
		// 1. 楽天排行页。出错即视为排行终点（不静默吞掉，但也不作废已采集的页）
		rakutenItems, err := s.rakuten.CategoryRanking(ctx, strconv.Itoa(ids.Rakuten), page)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"category": label,
				"page":     page,
			}).Warn("楽天排行页采集失败，终止翻页")
			break
		}

		// 2. 每个楽天页配套抓取固定数量的Amazon页（页号由楽天页号决定论导出）
		//    单页失败降级为空页，不中断整体构建
		span := s.snapCfg.AmazonPageSpan
		for aPage := (page-1)*span + 1; aPage <= page*span; aPage++ {
			amazonItems, aerr := s.amazon.ReviewRankedSearch(ctx, label, ids.Amazon, aPage)
			if aerr != nil {
				s.logger.WithError(aerr).WithFields(logrus.Fields{
					"category": label,
					"page":     aPage,
				}).Warn("Amazon排行页采集失败，按空页处理")
				continue
			}
			items = append(items, amazonItems...)
		}

		// 3. 楽天空页=该类目排行到头，停止翻页（本页配套的Amazon页已采集）
		if len(rakutenItems) == 0 {
			break
		}
		items = append(items, rakutenItems...)
	}
	return items, nil
}

// persist 逐条落S3。写失败直接中止（重跑从头覆盖即可）
func (s *SnapshotService) persist(ctx context.Context, label, month string, items []model.Item) error {
	for _, it := range items {
		record := model.SnapshotItem{Item: it, GetMonth: month, Category: label}
		key := record.SnapshotKey(s.storCfg.Prefix)
		if err := s.store.PutJSON(ctx, key, &record); err != nil {
			return fmt.Errorf("快照记录落盘失败: %w", err)
		}
		observability.SnapshotRecordsTotal.WithLabelValues(it.Shop).Inc()
	}
	return nil
}

// EnsureTable 在快照前缀上登记外部表（IF NOT EXISTS，首次生效，之后幂等）
func (s *SnapshotService) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
            CREATE EXTERNAL TABLE IF NOT EXISTS %s.%s (
                item_code string,
                item_name string,
                item_description string,
                item_price double,
                item_url string,
                item_img string,
                item_point_rate double,
                item_point double,
                ranking int,
                shop string,
                get_month string,
                category string
            )
            ROW FORMAT SERDE 'org.openx.data.jsonserde.JsonSerDe'
            WITH SERDEPROPERTIES (
            'serialization.format' = '1'
            ) LOCATION 's3://%s/%s/'
            TBLPROPERTIES ('has_encrypted_data'='false');`,
		s.queryCfg.Database, s.queryCfg.Table, s.storCfg.Bucket, s.storCfg.Prefix)

	if err := s.runner.Execute(ctx, query); err != nil {
		return fmt.Errorf("登记外部表失败: %w", err)
	}
	return nil
}
