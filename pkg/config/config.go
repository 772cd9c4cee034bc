package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Progress ProgressConfig `yaml:"progress"`
	Ticker   TickerConfig   `yaml:"ticker"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Queue    QueueConfig    `yaml:"queue"`
	Storage  StorageConfig  `yaml:"storage"`
	Assets   AssetsConfig   `yaml:"assets"`
	Session  SessionConfig  `yaml:"session"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port          int    `yaml:"port"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
	UploadDir     string `yaml:"upload_dir"`
}

// ProgressConfig 进度条计时器配置
type ProgressConfig struct {
	MaxTicks       int `yaml:"max_ticks"`
	TickIntervalMs int `yaml:"tick_interval_ms"`
}

// TickerConfig 阶段字幕滚动配置
type TickerConfig struct {
	TotalDurationMs int    `yaml:"total_duration_ms"` // 全部字幕播放完的总时长
	StartDelayMs    int    `yaml:"start_delay_ms"`    // 开始滚动前的一次性延迟
	MaxVisible      int    `yaml:"max_visible"`
	ScriptPath      string `yaml:"script_path"` // 为空时使用内置脚本
}

// GatewayConfig 翻译网关配置
type GatewayConfig struct {
	Type      string `yaml:"type"` // static | http | openai
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	Voice  string `yaml:"voice"`
}

// QueueConfig 队列配置
type QueueConfig struct {
	Type        string         `yaml:"type"`
	BufferSize  int            `yaml:"buffer_size"`
	WorkerCount int            `yaml:"worker_count"`
	RabbitMQ    RabbitMQConfig `yaml:"rabbitmq"`
}

// RabbitMQConfig RabbitMQ 配置
type RabbitMQConfig struct {
	URL       string `yaml:"url"`
	QueueName string `yaml:"queue_name"`
}

// StorageConfig 任务存储配置
type StorageConfig struct {
	Type     string         `yaml:"type"` // memory | redis | postgres | sqlite | hybrid
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// SQLiteConfig SQLite 配置
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// AssetsConfig 静态资源存储配置
type AssetsConfig struct {
	BucketURL   string `yaml:"bucket_url"`
	DownloadKey string `yaml:"download_key"`
}

// SessionConfig 浏览器会话配置
type SessionConfig struct {
	Secret     string `yaml:"secret"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// Default 返回全部默认值的配置
func Default() *Config {
	cfg := &Config{}
	// 空配置校验只会填充默认值，不会失败
	_ = cfg.Validate()
	return cfg
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析 YAML
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 验证配置
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// LoadOrDefault 配置文件不存在时使用默认配置
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate 验证配置并填充默认值
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		c.Server.Port = 8050
	}
	if c.Server.MaxUploadSize <= 0 {
		c.Server.MaxUploadSize = 500 * 1024 * 1024
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploads"
	}

	if c.Progress.MaxTicks <= 0 {
		c.Progress.MaxTicks = 70
	}
	if c.Progress.TickIntervalMs <= 0 {
		c.Progress.TickIntervalMs = 1000
	}

	if c.Ticker.TotalDurationMs <= 0 {
		c.Ticker.TotalDurationMs = 60000
	}
	if c.Ticker.StartDelayMs < 0 {
		return fmt.Errorf("ticker.start_delay_ms 不能为负数: %d", c.Ticker.StartDelayMs)
	}
	if c.Ticker.StartDelayMs == 0 {
		c.Ticker.StartDelayMs = 8000
	}
	if c.Ticker.MaxVisible <= 0 {
		c.Ticker.MaxVisible = 5
	}

	// 字幕必须在进度条走满之前播放完
	budget := c.Progress.MaxTicks * c.Progress.TickIntervalMs
	if c.Ticker.StartDelayMs+c.Ticker.TotalDurationMs > budget {
		return fmt.Errorf("字幕总时长 %dms + 启动延迟 %dms 超过进度条时长 %dms",
			c.Ticker.TotalDurationMs, c.Ticker.StartDelayMs, budget)
	}

	switch c.Gateway.Type {
	case "":
		c.Gateway.Type = "static"
	case "static":
	case "http":
		if c.Gateway.URL == "" {
			return fmt.Errorf("gateway.type=http 时必须设置 gateway.url")
		}
	case "openai":
		if c.OpenAI.APIKey == "" || c.OpenAI.APIKey == "your-openai-api-key-here" {
			return fmt.Errorf("请在配置文件中设置有效的 OpenAI API Key")
		}
	default:
		return fmt.Errorf("不支持的网关类型: %s", c.Gateway.Type)
	}
	if c.Gateway.TimeoutMs <= 0 {
		c.Gateway.TimeoutMs = 30000
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.Voice == "" {
		c.OpenAI.Voice = "alloy"
	}

	switch c.Queue.Type {
	case "":
		c.Queue.Type = "memory"
	case "memory":
	case "rabbitmq":
		if c.Queue.RabbitMQ.URL == "" {
			return fmt.Errorf("queue.type=rabbitmq 时必须设置 queue.rabbitmq.url")
		}
		if c.Queue.RabbitMQ.QueueName == "" {
			c.Queue.RabbitMQ.QueueName = "subhashit.translations"
		}
	default:
		return fmt.Errorf("不支持的队列类型: %s", c.Queue.Type)
	}
	if c.Queue.BufferSize <= 0 {
		c.Queue.BufferSize = 100
	}
	if c.Queue.WorkerCount <= 0 {
		c.Queue.WorkerCount = 2
	}

	switch c.Storage.Type {
	case "":
		c.Storage.Type = "memory"
	case "memory":
	case "redis", "postgres", "sqlite", "hybrid":
	default:
		return fmt.Errorf("不支持的存储类型: %s", c.Storage.Type)
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = "localhost:6379"
	}
	if c.Storage.Redis.TTLMinutes <= 0 {
		c.Storage.Redis.TTLMinutes = 24 * 60
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "data/subhashit.db"
	}
	if (c.Storage.Type == "postgres" || c.Storage.Type == "hybrid") && c.Storage.Postgres.DSN == "" {
		return fmt.Errorf("storage.type=%s 时必须设置 storage.postgres.dsn", c.Storage.Type)
	}

	if c.Assets.BucketURL == "" {
		c.Assets.BucketURL = "file://./assets?create_dir=true"
	}
	if c.Assets.DownloadKey == "" {
		c.Assets.DownloadKey = "translated_video.mp4"
	}

	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = 60
	}
	if len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{"*"}
	}

	return nil
}

// TickInterval 进度条计时器间隔
func (p ProgressConfig) TickInterval() time.Duration {
	return time.Duration(p.TickIntervalMs) * time.Millisecond
}

// TotalDuration 字幕滚动总时长
func (t TickerConfig) TotalDuration() time.Duration {
	return time.Duration(t.TotalDurationMs) * time.Millisecond
}

// StartDelay 字幕滚动启动延迟
func (t TickerConfig) StartDelay() time.Duration {
	return time.Duration(t.StartDelayMs) * time.Millisecond
}

// Timeout 网关调用超时
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// TTL Redis 数据过期时间
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLMinutes) * time.Minute
}

// TTL 会话空闲过期时间
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}
