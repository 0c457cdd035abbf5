package observability

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProviderRequestsTotal 各商品平台的外呼次数
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "商品平台API调用总数",
		},
		[]string{"provider"},
	)

	// ProviderFailuresTotal 各商品平台的外呼失败次数（检索降级、排行空页的依据）
	ProviderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_failures_total",
			Help: "商品平台API调用失败总数",
		},
		[]string{"provider"},
	)

	// QueryDurationSeconds Athena查询从提交到终态的耗时
	QueryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "athena_query_duration_seconds",
			Help:    "Athena查询执行耗时（秒）",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// SnapshotRecordsTotal 快照批处理落盘的记录数（按店铺）
	SnapshotRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_records_total",
			Help: "排行快照落盘记录总数",
		},
		[]string{"shop"},
	)
)

// Register 注册全部指标（main中调用一次）
func Register() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderFailuresTotal,
		QueryDurationSeconds,
		SnapshotRecordsTotal,
	)
}

// Handler /metrics 路由处理器
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
