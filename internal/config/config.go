// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Paystack      PaystackConfig      `mapstructure:"paystack"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Access        AccessConfig        `mapstructure:"access"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储身份提供方签发 token 的验证配置。
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// RateLimitConfig 存储限流相关的配置。
// Store 为 "memory" 时使用进程内滑动窗口，为 "redis" 时使用共享计数器（多实例部署）。
type RateLimitConfig struct {
	Store             string `mapstructure:"store"`
	RequestsPerWindow int    `mapstructure:"requests_per_window"`
	WindowSeconds     int    `mapstructure:"window_seconds"`
	PathPrefix        string `mapstructure:"path_prefix"`
}

// LLMConfig 存储补全服务相关的配置。
type LLMConfig struct {
	APIKey                string              `mapstructure:"api_key"`
	BaseURL               string              `mapstructure:"base_url"`
	Model                 string              `mapstructure:"model"`
	RequestTimeoutSeconds int                 `mapstructure:"request_timeout_seconds"`
	MaxRetries            int                 `mapstructure:"max_retries"`
	RetryDelaySeconds     int                 `mapstructure:"retry_delay_seconds"`
	Generation            LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数。
type LLMGenerationConfig struct {
	Temperature      float64 `mapstructure:"temperature"`
	FrequencyPenalty float64 `mapstructure:"frequency_penalty"`
	PresencePenalty  float64 `mapstructure:"presence_penalty"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	PitchMaxTokens   int     `mapstructure:"pitch_max_tokens"`
}

// PaystackConfig 存储支付网关相关的配置。
type PaystackConfig struct {
	SecretKey   string `mapstructure:"secret_key"`
	BaseURL     string `mapstructure:"base_url"`
	CallbackURL string `mapstructure:"callback_url"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// AccessConfig 存储套餐可见性相关的配置。
type AccessConfig struct {
	FreePersonaLimit int `mapstructure:"free_persona_limit"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}

// Validate 校验启动必需的凭证，缺失时返回错误（进程启动阶段致命）。
func Validate(cfg *Config) error {
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("缺少 llm.api_key 配置")
	}
	if cfg.Paystack.SecretKey == "" {
		return fmt.Errorf("缺少 paystack.secret_key 配置")
	}
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("缺少 jwt.secret 配置")
	}
	return nil
}
