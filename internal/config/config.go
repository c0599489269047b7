package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Upstream       UpstreamConfig       `mapstructure:"upstream"`
	Model          ModelConfig          `mapstructure:"model"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Auth           AuthConfig           `mapstructure:"auth"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UpstreamConfig points at the storefront API that owns carts, likes and the
// product catalog.
type UpstreamConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Breaker           BreakerConfig `mapstructure:"breaker"`
}

// ModelConfig describes the hosted text-generation endpoint used by the
// "model" recommendation source.
type ModelConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Name        string        `mapstructure:"name"`
	Endpoint    string        `mapstructure:"endpoint"`
	APIToken    string        `mapstructure:"api_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxLength   int           `mapstructure:"max_length"`
	Temperature float64       `mapstructure:"temperature"`
	TopK        int           `mapstructure:"top_k"`
	TopP        float64       `mapstructure:"top_p"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
}

// ResolvedEndpoint returns Endpoint, or the hosted inference URL for Name.
func (m ModelConfig) ResolvedEndpoint() string {
	if m.Endpoint != "" {
		return m.Endpoint
	}
	if m.Name == "" {
		return ""
	}
	return "https://api-inference.huggingface.co/models/" + m.Name
}

type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

type RecommendationConfig struct {
	DefaultLimit     int           `mapstructure:"default_limit"`
	MaxLimit         int           `mapstructure:"max_limit"`
	DefaultAlgorithm string        `mapstructure:"default_algorithm"`
	BatchMaxUsers    int           `mapstructure:"batch_max_users"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	CatalogTTL       time.Duration `mapstructure:"catalog_ttl"`
}

// ClampLimit bounds a requested limit to [1, MaxLimit].
func (r RecommendationConfig) ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if r.MaxLimit > 0 && limit > r.MaxLimit {
		return r.MaxLimit
	}
	return limit
}

// RedisConfig is optional; an empty URL disables the catalog cache and rate
// limiting.
type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers []string      `mapstructure:"brokers"`
	Topic   string        `mapstructure:"topic"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Default int           `mapstructure:"default"`
	Premium int           `mapstructure:"premium"`
	Window  time.Duration `mapstructure:"window"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindLegacyEnv keeps the variable names the standalone scripts used working.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("upstream.base_url", "UPSTREAM_BASE_URL", "API_BASE_URL")
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.host", "SERVER_HOST", "HOST")
	_ = v.BindEnv("model.name", "MODEL_NAME", "HF_MODEL_NAME")
	_ = v.BindEnv("model.api_token", "MODEL_API_TOKEN", "HF_API_TOKEN")
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "development")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Upstream defaults
	v.SetDefault("upstream.base_url", "https://wb16fax93g.execute-api.us-east-2.amazonaws.com/dev")
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.requests_per_second", 20)
	v.SetDefault("upstream.burst", 10)
	v.SetDefault("upstream.breaker.max_requests", 1)
	v.SetDefault("upstream.breaker.interval", "60s")
	v.SetDefault("upstream.breaker.timeout", "30s")
	v.SetDefault("upstream.breaker.failure_threshold", 5)

	// Model defaults
	v.SetDefault("model.enabled", true)
	v.SetDefault("model.name", "MuthanaH/GPT2-Product-Recommendation-System")
	v.SetDefault("model.endpoint", "")
	v.SetDefault("model.api_token", "")
	v.SetDefault("model.timeout", "15s")
	v.SetDefault("model.max_length", 200)
	v.SetDefault("model.temperature", 0.8)
	v.SetDefault("model.top_k", 50)
	v.SetDefault("model.top_p", 0.95)
	v.SetDefault("model.breaker.max_requests", 1)
	v.SetDefault("model.breaker.interval", "60s")
	v.SetDefault("model.breaker.timeout", "60s")
	v.SetDefault("model.breaker.failure_threshold", 3)

	// Recommendation defaults
	v.SetDefault("recommendation.default_limit", 5)
	v.SetDefault("recommendation.max_limit", 20)
	v.SetDefault("recommendation.default_algorithm", "rule_based")
	v.SetDefault("recommendation.batch_max_users", 50)
	v.SetDefault("recommendation.batch_concurrency", 8)
	v.SetDefault("recommendation.catalog_ttl", "5m")

	// Redis defaults
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.timeout", "5s")

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "recommendations-served")
	v.SetDefault("kafka.timeout", "5s")

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "cartrec")
	v.SetDefault("auth.token_ttl", "24h")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default", 1000)
	v.SetDefault("rate_limit.premium", 10000)
	v.SetDefault("rate_limit.window", "1h")

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"*"})
}
