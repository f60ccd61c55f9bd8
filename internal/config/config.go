package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Env       string          `mapstructure:"env"` // 环境: development, production
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Approval  ApprovalConfig  `mapstructure:"approval"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig 审批库配置(SQLite)
type DatabaseConfig struct {
	Path         string `mapstructure:"path"` // 数据库文件路径,":memory:" 表示内存库
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// StorageConfig 已批准预约库配置(独立于审批库的第二个 SQLite 库)
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ApprovalConfig 审批流程配置
type ApprovalConfig struct {
	Channel          string        `mapstructure:"channel"`            // 审批通道: auto, telegram
	WaitTimeout      time.Duration `mapstructure:"wait_timeout"`       // 提交后的有界等待时长
	PollInterval     time.Duration `mapstructure:"poll_interval"`      // 等待期间的轮询间隔
	AutoApproveDelay time.Duration `mapstructure:"auto_approve_delay"` // auto 通道的固定审批延迟
}

// TelegramConfig Telegram 审批通道配置
type TelegramConfig struct {
	BotToken    string        `mapstructure:"bot_token"`
	AdminChatID string        `mapstructure:"admin_chat_id"`
	Timeout     time.Duration `mapstructure:"timeout"`      // 单次 API 调用超时
	PollTimeout int           `mapstructure:"poll_timeout"` // getUpdates 长轮询秒数
}

// RetrievalConfig 信息检索配置
type RetrievalConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`   // 检索调用级超时
	DocsPath string        `mapstructure:"docs_path"` // 知识库文档路径(可为空,使用内置文档)
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error
	Format string `mapstructure:"format"` // 日志格式: json, text
	Output string `mapstructure:"output"` // 输出位置: stdout, file, both
	File   string `mapstructure:"file"`   // 日志文件路径(output 为 file/both 时使用)
}

// Load 加载配置,支持配置文件和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果提供了配置文件路径,从文件加载
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		// 尝试从默认位置加载
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.ai-chatbot")
		// 忽略配置文件不存在的错误,使用默认值
		_ = v.ReadInConfig()
	}

	// 支持环境变量
	v.SetEnvPrefix("AICHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate 验证配置合法性
func (c *Config) Validate() error {
	if c.Approval.Channel != "auto" && c.Approval.Channel != "telegram" {
		return fmt.Errorf("unknown approval channel %q (expected auto or telegram)", c.Approval.Channel)
	}
	if c.Approval.WaitTimeout <= 0 {
		return errors.New("approval.wait_timeout must be positive")
	}
	if c.Approval.PollInterval <= 0 {
		return errors.New("approval.poll_interval must be positive")
	}
	if c.Approval.Channel == "telegram" && (c.Telegram.BotToken == "" || c.Telegram.AdminChatID == "") {
		return errors.New("telegram channel requires telegram.bot_token and telegram.admin_chat_id")
	}
	return nil
}

// IsProduction 判断是否为生产环境
func IsProduction(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return cfg.Env == "production"
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 环境变量
	env := v.GetString("env")
	if env == "" {
		env = os.Getenv("AICHATBOT_ENV")
		if env == "" {
			env = "development"
		}
	}
	v.SetDefault("env", env)

	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// 审批库默认配置
	v.SetDefault("database.path", "data/approvals.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)

	// 已批准预约库默认配置
	v.SetDefault("storage.path", "data/reservations.db")

	// 审批流程默认配置
	// 默认使用 auto 通道,零配置即可运行
	v.SetDefault("approval.channel", "auto")
	v.SetDefault("approval.wait_timeout", "60s")
	v.SetDefault("approval.poll_interval", "1s")
	v.SetDefault("approval.auto_approve_delay", "1s")

	// Telegram 默认配置
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.admin_chat_id", "")
	v.SetDefault("telegram.timeout", "5s")
	v.SetDefault("telegram.poll_timeout", 30)

	// 检索默认配置
	v.SetDefault("retrieval.timeout", "10s")
	v.SetDefault("retrieval.docs_path", "")

	// 限流默认配置
	v.SetDefault("rate_limit.rps", 50.0)
	v.SetDefault("rate_limit.burst", 100)

	// CORS 默认配置
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.max_age", 86400)

	// 日志配置（根据环境设置默认值）
	if env == "production" {
		v.SetDefault("log.level", "warn")
		v.SetDefault("log.format", "json")
	} else {
		v.SetDefault("log.level", "debug")
		v.SetDefault("log.format", "text")
	}
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/ai-chatbot.log")
}
