package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Postgres PostgresConfig `mapstructure:"postgres"` // PostgreSQL配置（快照任务履历）
	Rakuten  RakutenConfig  `mapstructure:"rakuten"`  // 楽天市場API配置
	Amazon   AmazonConfig   `mapstructure:"amazon"`   // Amazon PA-API配置
	Athena   AthenaConfig   `mapstructure:"athena"`   // Athena查询引擎配置
	Storage  StorageConfig  `mapstructure:"storage"`  // S3快照存储配置
	Snapshot SnapshotConfig `mapstructure:"snapshot"` // 排行快照批处理配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// RakutenConfig 楽天市場API配置（商品检索 + ジャンル排行）
type RakutenConfig struct {
	ApplicationID string `mapstructure:"application_id"`  // 应用ID（敏感，.env覆盖）
	AffiliateID   string `mapstructure:"affiliate_id"`    // 联盟ID（敏感，.env覆盖）
	SearchAPIURL  string `mapstructure:"search_api_url"`  // 商品检索接口地址
	RankingAPIURL string `mapstructure:"ranking_api_url"` // ジャンル排行接口地址
	Timeout       int    `mapstructure:"timeout"`         // 请求超时（秒）
	Proxy         string `mapstructure:"proxy"`           // 代理地址
}

// AmazonConfig Amazon PA-API v5配置
type AmazonConfig struct {
	AccessKey   string `mapstructure:"access_key"`   // 访问密钥（敏感，.env覆盖）
	SecretKey   string `mapstructure:"secret_key"`   // 私有密钥（敏感，.env覆盖）
	AssociateID string `mapstructure:"associate_id"` // 联盟标签 PartnerTag
	Country     string `mapstructure:"country"`      // 市场国家代码：JP/US
	Timeout     int    `mapstructure:"timeout"`      // 请求超时（秒）
	Proxy       string `mapstructure:"proxy"`        // 代理地址
}

// AthenaConfig Athena异步查询引擎配置
type AthenaConfig struct {
	Region         string        `mapstructure:"region"`          // AWS区域
	Database       string        `mapstructure:"database"`        // 数据库名
	Table          string        `mapstructure:"table"`           // 排行快照外部表名
	OutputLocation string        `mapstructure:"output_location"` // 查询结果输出位置（s3://...）
	PollInterval   time.Duration `mapstructure:"poll_interval"`   // 执行状态轮询间隔
	WaitTimeout    time.Duration `mapstructure:"wait_timeout"`    // 查询等待上限（超过即放弃）
	PageSize       int32         `mapstructure:"page_size"`       // 结果分页大小
}

// StorageConfig S3快照存储配置
type StorageConfig struct {
	Bucket string `mapstructure:"bucket"` // 存储桶名
	Prefix string `mapstructure:"prefix"` // 快照对象前缀
}

// SnapshotConfig 排行快照批处理配置
type SnapshotConfig struct {
	MaxPages       int `mapstructure:"max_pages"`        // 楽天排行最多翻页数
	AmazonPageSpan int `mapstructure:"amazon_page_span"` // 每个楽天页对应抓取的Amazon页数
	AmazonPageSize int `mapstructure:"amazon_page_size"` // Amazon每页条数（用于计算排名）
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("RAKUTEN_APP_ID"); v != "" {
		cfg.Rakuten.ApplicationID = v
	}
	if v := os.Getenv("RAKUTEN_AFFILIATE_ID"); v != "" {
		cfg.Rakuten.AffiliateID = v
	}
	if v := os.Getenv("RAKUTEN_SEARCH_API_URL"); v != "" {
		cfg.Rakuten.SearchAPIURL = v
	}
	if v := os.Getenv("RAKUTEN_RANKING_API"); v != "" {
		cfg.Rakuten.RankingAPIURL = v
	}
	if v := os.Getenv("AMAZON_ACCESS_KEY"); v != "" {
		cfg.Amazon.AccessKey = v
	}
	if v := os.Getenv("AMAZON_SECRET_KEY"); v != "" {
		cfg.Amazon.SecretKey = v
	}
	if v := os.Getenv("AMAZON_ASSOCIATE_ID"); v != "" {
		cfg.Amazon.AssociateID = v
	}
	if v := os.Getenv("AMAZON_COUNTRY"); v != "" {
		cfg.Amazon.Country = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("RANKING_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
}

// applyDefaults 未配置项的兜底默认值
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Rakuten.Timeout == 0 {
		cfg.Rakuten.Timeout = 10
	}
	if cfg.Amazon.Timeout == 0 {
		cfg.Amazon.Timeout = 10
	}
	if cfg.Amazon.Country == "" {
		cfg.Amazon.Country = "JP"
	}
	if cfg.Athena.PollInterval == 0 {
		cfg.Athena.PollInterval = time.Second
	}
	if cfg.Athena.WaitTimeout == 0 {
		cfg.Athena.WaitTimeout = 5 * time.Minute
	}
	if cfg.Athena.PageSize == 0 {
		cfg.Athena.PageSize = 1000
	}
	if cfg.Athena.OutputLocation == "" && cfg.Storage.Bucket != "" {
		cfg.Athena.OutputLocation = fmt.Sprintf("s3://%s/athena-results/", cfg.Storage.Bucket)
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "ranking_data"
	}
	if cfg.Snapshot.MaxPages == 0 {
		cfg.Snapshot.MaxPages = 2
	}
	if cfg.Snapshot.AmazonPageSpan == 0 {
		cfg.Snapshot.AmazonPageSpan = 3
	}
	if cfg.Snapshot.AmazonPageSize == 0 {
		cfg.Snapshot.AmazonPageSize = 10
	}
}
