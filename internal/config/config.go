package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/shophub/storefront/internal/storeapi"
	pkgconfig "github.com/shophub/storefront/pkg/config"
	"github.com/shophub/storefront/pkg/middleware"
	"github.com/shophub/storefront/pkg/tracing"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Shoe API
	APIURL     string        `env:"STOREFRONT_API_URL,required"`
	APITimeout time.Duration `env:"STOREFRONT_API_TIMEOUT" envDefault:"0s"`

	// Circuit breaker in front of the shoe API (off by default)
	BreakerEnabled      bool          `env:"STOREFRONT_BREAKER_ENABLED" envDefault:"false"`
	BreakerTimeout      time.Duration `env:"STOREFRONT_BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"STOREFRONT_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"STOREFRONT_BREAKER_MIN_REQUESTS" envDefault:"5"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// Per-client rate limit on /api/v1 (0 disables it)
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// /metrics access (CIDR notation, empty leaves it open)
	MetricsAllowedCIDRs []string `env:"METRICS_ALLOWED_CIDRS" envSeparator:","`

	// /debug/pprof access (CIDR notation, empty disables it)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// OpenTelemetry
	Tracing tracing.Config
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, environment); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("STOREFRONT_API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.APITimeout < 0 {
		return fmt.Errorf("STOREFRONT_API_TIMEOUT must not be negative, got %s", c.APITimeout)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("STOREFRONT_BREAKER_FAILURE_RATIO must be in (0, 1], got %f", c.BreakerFailureRatio)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit must not be negative, got %f rps burst %d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate)
	}
	return nil
}

// StoreAPI returns the shoe API client configuration.
func (c *Config) StoreAPI() storeapi.Config {
	cfg := storeapi.Config{
		BaseURL: c.APIURL,
		Timeout: c.APITimeout,
	}
	if c.BreakerEnabled {
		cfg.Breaker = storeapi.DefaultBreakerConfig()
		cfg.Breaker.Timeout = c.BreakerTimeout
		cfg.Breaker.FailureRatio = c.BreakerFailureRatio
		cfg.Breaker.MinRequests = c.BreakerMinRequests
	}
	return cfg
}

// CORS returns the CORS middleware configuration.
func (c *Config) CORS() middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	cfg.AllowedOrigins = c.CORSAllowedOrigins
	cfg.Environment = c.Environment
	return cfg
}
