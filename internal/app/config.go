package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (MENU_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Upstream  UpstreamConfig
	Cart      CartConfig
	Order     OrderConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// UpstreamConfig points at the catalog data provider.
type UpstreamConfig struct {
	BaseURL      string        `usage:"Catalog provider base URL (MENU_UPSTREAM_BASE_URL)" flag:"upstream-url"`
	APIKey       string        `usage:"Catalog provider API key" flag:"upstream-api-key"`
	Organization string        `default:"eighty-one" usage:"Venue organization slug"`
	Timeout      time.Duration `default:"10s" usage:"Per-request timeout for provider calls"`
}

// CartConfig selects and configures the durable cart store.
type CartConfig struct {
	Store       string `default:"postgres" usage:"Cart store backend: postgres, redis or memory"`
	DatabaseURL string `usage:"PostgreSQL connection URL (MENU_CART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL    string `usage:"Redis connection URL (MENU_CART_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	Namespace   string `default:"taproom-cart" usage:"Durable key the cart persists under"`
}

// OrderConfig configures order dispatch.
type OrderConfig struct {
	WhatsAppPhone string `default:"+84367871781" usage:"WhatsApp channel phone number" flag:"whatsapp-phone"`
}

// CatalogConfig controls the in-memory catalog refresh.
type CatalogConfig struct {
	RefreshInterval time.Duration `default:"5m" usage:"Interval between catalog refreshes"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MENU",
		Files:     []string{"config.yaml", "/etc/taproom/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Cart.Store {
	case "postgres":
		if cfg.Cart.DatabaseURL == "" {
			return nil, errors.New("database URL is required: set MENU_CART_DATABASE_URL or DATABASE_URL")
		}
	case "redis":
		if cfg.Cart.RedisURL == "" {
			return nil, errors.New("redis URL is required: set MENU_CART_REDIS_URL or REDIS_URL")
		}
	case "memory":
	default:
		return nil, errors.Errorf("unknown cart store %q: want postgres, redis or memory", cfg.Cart.Store)
	}

	if cfg.Upstream.BaseURL == "" {
		return nil, errors.New("upstream base URL is required: set MENU_UPSTREAM_BASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) with standard names like DATABASE_URL and PORT to
// the MENU_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Cart.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Cart.DatabaseURL = v
		}
	}
	if c.Cart.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.Cart.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
