package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "LIVESPACE"

	EnvAppEnv        = "LIVESPACE_APP_ENV"
	EnvLogLevel      = "LIVESPACE_LOG_LEVEL"
	EnvAPIURL        = "LIVESPACE_API_URL"
	EnvAPIKey        = "LIVESPACE_API_KEY"
	EnvAPISecret     = "LIVESPACE_API_SECRET"
	EnvOutputFormat  = "LIVESPACE_OUTPUT_FORMAT"
	EnvHTTPTimeout   = "LIVESPACE_HTTP_TIMEOUT"
	EnvRateLimitRPS  = "LIVESPACE_RATE_LIMIT_RPS"
	EnvRedisURL      = "LIVESPACE_REDIS_URL"
	EnvRedisAddr     = "LIVESPACE_REDIS_ADDR"
	EnvSessionTTL    = "LIVESPACE_SESSION_TTL"
	EnvMetricsEnable = "LIVESPACE_METRICS_ENABLED"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig
	Livespace LivespaceConfig
	Redis     RedisConfig
	Metrics   MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Livespace.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LIVESPACE_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"LIVESPACE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LIVESPACE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// LivespaceConfig holds the API endpoint and the shared-secret credentials.
type LivespaceConfig struct {
	APIURL         string        `envconfig:"LIVESPACE_API_URL" required:"true"`
	APIKey         string        `envconfig:"LIVESPACE_API_KEY" required:"true"`
	APISecret      string        `envconfig:"LIVESPACE_API_SECRET" required:"true"`
	OutputFormat   string        `envconfig:"LIVESPACE_OUTPUT_FORMAT" default:"json"`
	HTTPTimeout    time.Duration `envconfig:"LIVESPACE_HTTP_TIMEOUT" default:"30s"`
	RateLimitRPS   float64       `envconfig:"LIVESPACE_RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int           `envconfig:"LIVESPACE_RATE_LIMIT_BURST" default:"1"`
	SessionTTL     time.Duration `envconfig:"LIVESPACE_SESSION_TTL" default:"20m"`
}

func (l *LivespaceConfig) normalize() error {
	l.APIURL = strings.TrimRight(strings.TrimSpace(l.APIURL), "/")
	l.APIKey = strings.TrimSpace(l.APIKey)
	l.APISecret = strings.TrimSpace(l.APISecret)
	l.OutputFormat = strings.ToLower(strings.TrimSpace(l.OutputFormat))
	if l.OutputFormat == "" {
		l.OutputFormat = "json"
	}
	if l.HTTPTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvHTTPTimeout)
	}
	if l.RateLimitRPS < 0 {
		return fmt.Errorf("%s must not be negative", EnvRateLimitRPS)
	}
	if l.RateLimitBurst <= 0 {
		l.RateLimitBurst = 1
	}
	return nil
}

// RedisConfig is optional; when neither URL nor address is set credentials
// are only cached in process memory.
type RedisConfig struct {
	URL          string        `envconfig:"LIVESPACE_REDIS_URL"`
	Address      string        `envconfig:"LIVESPACE_REDIS_ADDR"`
	Password     string        `envconfig:"LIVESPACE_REDIS_PASSWORD"`
	DB           int           `envconfig:"LIVESPACE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LIVESPACE_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"LIVESPACE_REDIS_MIN_IDLE_CONNS" default:"0"`
	DialTimeout  time.Duration `envconfig:"LIVESPACE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LIVESPACE_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"LIVESPACE_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type MetricsConfig struct {
	Enabled bool `envconfig:"LIVESPACE_METRICS_ENABLED" default:"false"`
}
