package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	App       AppConfig       `mapstructure:"app"`
	Push      PushConfig      `mapstructure:"push"`
	Alipay    AlipayConfig    `mapstructure:"alipay"`
	Wechat    WechatPayConfig `mapstructure:"wechat"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Points    PointsConfig    `mapstructure:"points"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 身份服务签发的 token 校验密钥
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int64  `mapstructure:"expire"` // 小时
}

type AppConfig struct {
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type PushConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	AppKey          int64  `mapstructure:"app_key"`
	RegionID        string `mapstructure:"region_id"` // e.g., "cn-hangzhou"
}

type AlipayConfig struct {
	AppID        string `mapstructure:"app_id"`
	PrivateKey   string `mapstructure:"private_key"`   // 应用私钥
	PublicKey    string `mapstructure:"public_key"`    // 支付宝公钥 (不是应用公钥)
	NotifyURL    string `mapstructure:"notify_url"`    // 异步通知地址
	IsProduction bool   `mapstructure:"is_production"` // 是否生产环境
}

type WechatPayConfig struct {
	AppID                string `mapstructure:"app_id"`
	MchID                string `mapstructure:"mch_id"`
	MchCertificateSerial string `mapstructure:"mch_cert_serial"`
	MchPrivateKey        string `mapstructure:"mch_private_key"`
	APIv3Key             string `mapstructure:"apiv3_key"`
	NotifyURL            string `mapstructure:"notify_url"`
}

// GatewayConfig 通用签名网关 (t=...,v1=... HMAC-SHA256)
type GatewayConfig struct {
	WebhookSecret string        `mapstructure:"webhook_secret"`
	Tolerance     time.Duration `mapstructure:"tolerance"` // 允许的时间戳偏差
	CheckoutURL   string        `mapstructure:"checkout_url"`
}

// PointsConfig 积分规则
type PointsConfig struct {
	MinRedeem       int64         `mapstructure:"min_redeem"`
	Unit            int64         `mapstructure:"unit"`
	PointsPerDollar int64         `mapstructure:"points_per_dollar"`
	EarnPerClaim    int64         `mapstructure:"earn_per_claim"`
	EntryTTL        time.Duration `mapstructure:"entry_ttl"` // 0 表示积分不过期
}

// WorkerConfig 支付事件重试池
type WorkerConfig struct {
	Workers    int           `mapstructure:"workers"`
	QueueSize  int           `mapstructure:"queue_size"`
	MaxRetry   int           `mapstructure:"max_retry"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

var GlobalConfig Config

// Validate 验证配置
func (c *Config) Validate() error {
	// JWT 配置验证
	if c.JWT.Secret == "" || c.JWT.Secret == "your_super_secret_key" {
		return errors.New("please set a secure JWT secret in production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret should be at least 32 characters")
	}

	// 数据库配置验证
	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return errors.New("database configuration is incomplete")
	}

	// Redis 配置验证
	if c.Redis.Addr == "" {
		return errors.New("redis address is required")
	}

	return c.Points.Validate()
}

// Validate 积分规则必须自洽：最小兑换额是单位的整数倍
func (p PointsConfig) Validate() error {
	if p.Unit <= 0 || p.PointsPerDollar <= 0 {
		return errors.New("points.unit and points.points_per_dollar must be positive")
	}
	if p.MinRedeem < p.Unit || p.MinRedeem%p.Unit != 0 {
		return errors.New("points.min_redeem must be a positive multiple of points.unit")
	}
	if p.EarnPerClaim < 0 {
		return errors.New("points.earn_per_claim must not be negative")
	}
	return nil
}

// DefaultPoints 默认积分规则
func DefaultPoints() PointsConfig {
	return PointsConfig{
		MinRedeem:       500,
		Unit:            100,
		PointsPerDollar: 100,
		EarnPerClaim:    100,
	}
}

// LoadConfig 加载配置
func LoadConfig() {
	// 获取环境变量，默认为dev
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	// 根据环境选择配置文件
	configName := "config"
	if env != "dev" {
		configName = "config." + env
	}

	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("jwt.expire", 24)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("app.env", env)
	viper.SetDefault("app.debug", true)
	viper.SetDefault("gateway.tolerance", 5*time.Minute)

	points := DefaultPoints()
	viper.SetDefault("points.min_redeem", points.MinRedeem)
	viper.SetDefault("points.unit", points.Unit)
	viper.SetDefault("points.points_per_dollar", points.PointsPerDollar)
	viper.SetDefault("points.earn_per_claim", points.EarnPerClaim)
	viper.SetDefault("points.entry_ttl", 0)

	viper.SetDefault("worker.workers", 4)
	viper.SetDefault("worker.queue_size", 1000)
	viper.SetDefault("worker.max_retry", 5)
	viper.SetDefault("worker.retry_delay", 2*time.Second)

	viper.SetDefault("ratelimit.qps", 200)
	viper.SetDefault("ratelimit.burst", 400)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Config file not found, using defaults or env vars: %v", err)
	}

	// 绑定环境变量：gateway.webhook_secret -> GATEWAY_WEBHOOK_SECRET
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode into struct: %v", err)
	}

	// 手动覆盖，以防 viper 无法正确解析复杂结构或环境变量
	if host := os.Getenv("DB_HOST"); host != "" {
		GlobalConfig.Database.Host = host
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		GlobalConfig.Redis.Addr = redisAddr
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		GlobalConfig.JWT.Secret = jwtSecret
	}

	// 验证配置
	if err := GlobalConfig.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Configuration loaded and validated successfully. Environment: %s", GlobalConfig.App.Env)
}
