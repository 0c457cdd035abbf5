package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/koy0208/backendapi/internal/adapter/amazon"
	"github.com/koy0208/backendapi/internal/adapter/rakuten"
	"github.com/koy0208/backendapi/internal/athena"
	"github.com/koy0208/backendapi/internal/category"
	"github.com/koy0208/backendapi/internal/config"
	"github.com/koy0208/backendapi/internal/observability"
	"github.com/koy0208/backendapi/internal/repository"
	"github.com/koy0208/backendapi/internal/service"
	"github.com/koy0208/backendapi/internal/storage"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// 排行快照批处理入口。按月调度执行，不在请求路径上。
// 同类目同月重跑即整体覆盖写，不会产生重复记录。
func main() {
	categoryFlag := flag.String("category", "", "只构建指定类目（空则构建全部排行类目）")
	timeoutFlag := flag.Duration("timeout", 30*time.Minute, "整体执行超时")
	flag.Parse()

	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	// 3. 初始化 PostgreSQL（快照履历）
	db, err := repository.OpenDB(&cfg.Postgres, logger)
	if err != nil {
		logger.Fatalf("连接PostgreSQL失败: %v", err)
	}
	runRepo := repository.NewSnapshotRunRepository(db)

	// 4. 初始化AWS客户端（S3落盘 + Athena建表）
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Athena.Region))
	if err != nil {
		logger.Fatalf("加载AWS配置失败: %v", err)
	}
	store := storage.NewStore(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, logger)
	queryClient := athena.NewClient(awsathena.NewFromConfig(awsCfg), &cfg.Athena, logger)

	// 5. 组装快照服务
	observability.Register()
	mapper := category.NewMapper()
	rakutenAdapter := rakuten.NewRakutenAdapter(&cfg.Rakuten, logger)
	amazonAdapter := amazon.NewAmazonAdapter(&cfg.Amazon, logger)
	snapshotService := service.NewSnapshotService(
		mapper, rakutenAdapter, amazonAdapter, store, queryClient, runRepo, cfg, logger)

	// 6. 构建快照（单类目或全部）
	labels := mapper.RankingCategories()
	if *categoryFlag != "" {
		labels = []string{*categoryFlag}
	}
	failed := 0
	for _, label := range labels {
		if err := snapshotService.BuildSnapshot(ctx, label); err != nil {
			logger.WithError(err).WithField("category", label).Error("类目快照构建失败")
			failed++
		}
	}

	// 7. 在快照前缀上登记外部表（IF NOT EXISTS，重复执行无害）
	if err := snapshotService.EnsureTable(ctx); err != nil {
		logger.Fatalf("登记外部表失败: %v", err)
	}

	if failed > 0 {
		logger.Fatalf("%d个类目构建失败", failed)
	}
	logger.Info("排行快照批处理完成")
}
