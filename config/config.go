package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"shiftpulse"`

	// 上游考勤 API 配置
	UpstreamBaseURL        string `env:"UPSTREAM_BASE_URL" envDefault:"http://localhost:8000/api"`
	UpstreamServiceToken   string `env:"UPSTREAM_SERVICE_TOKEN"` // 服务级 bearer token
	UpstreamTimeoutSeconds int    `env:"UPSTREAM_TIMEOUT_SECONDS" envDefault:"15"`

	// 轮询配置：三个事实各自独立的间隔
	ClockStatusIntervalSeconds      int `env:"POLL_CLOCK_STATUS_INTERVAL_SECONDS" envDefault:"30"`
	BreakRequirementIntervalSeconds int `env:"POLL_BREAK_REQUIREMENT_INTERVAL_SECONDS" envDefault:"45"`
	ActiveBreakIntervalSeconds      int `env:"POLL_ACTIVE_BREAK_INTERVAL_SECONDS" envDefault:"20"`
	SessionIdleMinutes              int `env:"POLL_SESSION_IDLE_MINUTES" envDefault:"5"`

	// 休息催办配置
	EscalationDelayMinutes int `env:"ESCALATION_DELAY_MINUTES" envDefault:"5"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"sp"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置，与主产品共享同一个签名密钥
	JWTSecret        string `env:"JWT_SECRET"` // 必填，用于校验 JWT
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"30"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"7"`

	// CSRF / 会话配置（浏览器端操作路由）
	CSRFEnabled   bool   `env:"CSRF_ENABLED" envDefault:"false"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:""`

	// QR 解码配置
	QRProvider string `env:"QR_PROVIDER" envDefault:"goqr"` // goqr, mock

	// 催办事件通知配置
	NotifyProvider      string `env:"NOTIFY_PROVIDER" envDefault:"webhook"` // webhook, mock
	NotifyWebhookURL    string `env:"NOTIFY_WEBHOOK_URL"`
	NotifyWebhookSecret string `env:"NOTIFY_WEBHOOK_SECRET"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 链路追踪配置
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"0.1"`
	ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"dev"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"100"` // 每秒请求数
}

func init() {

	if err := godotenv.Load(); err != nil {

		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

func validateConfig() {
	if Cfg.UpstreamServiceToken == "" {
		log.Printf("WARN: UPSTREAM_SERVICE_TOKEN is not set, upstream calls will be unauthenticated")
	}

	if Cfg.NotifyProvider == "webhook" && Cfg.NotifyWebhookURL == "" {
		log.Printf("WARN: NOTIFY_WEBHOOK_URL is not set, escalation delivery will not work")
	}
}

// MustValidate 启动时的强校验，由 cmd 入口调用
func MustValidate() {
	if Cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	if Cfg.CSRFEnabled && Cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is required when CSRF_ENABLED is true")
	}

	if Cfg.EscalationDelayMinutes <= 0 {
		log.Fatal("ESCALATION_DELAY_MINUTES must be positive")
	}
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

func (c *Config) EscalationDelay() time.Duration {
	return time.Duration(c.EscalationDelayMinutes) * time.Minute
}

func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
