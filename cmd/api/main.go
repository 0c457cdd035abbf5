package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/koy0208/backendapi/internal/adapter/amazon"
	"github.com/koy0208/backendapi/internal/adapter/rakuten"
	"github.com/koy0208/backendapi/internal/api"
	"github.com/koy0208/backendapi/internal/athena"
	"github.com/koy0208/backendapi/internal/category"
	"github.com/koy0208/backendapi/internal/config"
	"github.com/koy0208/backendapi/internal/observability"
	"github.com/koy0208/backendapi/internal/repository"
	"github.com/koy0208/backendapi/internal/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.Info("配置文件加载成功")

	// 3. 初始化 PostgreSQL 连接（快照履历查询用，库表不存在则自动创建）
	db, err := repository.OpenDB(&cfg.Postgres, logger)
	if err != nil {
		logger.Fatalf("连接PostgreSQL失败: %v", err)
	}
	logger.Info("PostgreSQL连接成功")

	// 4. 初始化AWS客户端（Athena异步查询）
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Athena.Region))
	if err != nil {
		logger.Fatalf("加载AWS配置失败: %v", err)
	}
	queryClient := athena.NewClient(awsathena.NewFromConfig(awsCfg), &cfg.Athena, logger)

	// 5. 组装静态映射与两个平台适配器
	mapper := category.NewMapper()
	rakutenAdapter := rakuten.NewRakutenAdapter(&cfg.Rakuten, logger)
	amazonAdapter := amazon.NewAmazonAdapter(&cfg.Amazon, logger)

	// 6. 注册指标
	observability.Register()

	// 7. 配置Gin运行模式（从配置读取：debug/release）
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// 注册pprof 方便调试和监测性能问题
	pprof.Register(r)
	r.GET("/metrics", observability.Handler())
	logger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	// 8. 注册API路由
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "OK !"})
	})

	searchService := service.NewSearchService(mapper, rakutenAdapter, amazonAdapter, logger)
	searchHandler := api.NewSearchHandler(searchService, logger)
	r.GET("/search_item", searchHandler.SearchItem)

	rankingService := service.NewRankingService(mapper, queryClient, &cfg.Athena, logger)
	runRepo := repository.NewSnapshotRunRepository(db)
	rankingHandler := api.NewRankingHandler(rankingService, runRepo, logger)
	r.GET("/ranking", rankingHandler.Ranking)
	r.GET("/snapshot_runs", rankingHandler.SnapshotRuns)

	// 9. 启动服务（从配置读取端口）
	port := cfg.Server.Port
	logger.Infof("服务启动成功，端口：%d", port)
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		logger.Fatalf("启动服务失败: %v", err)
	}
}
