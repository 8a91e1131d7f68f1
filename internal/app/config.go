package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Storage backends for the persisted cart.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL for relative product image paths" flag:"image-base-url"`
	Storage      StorageConfig
	Catalog      CatalogConfig
	Auth         AuthConfig
	Cart         CartConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects where the cart is persisted.
type StorageConfig struct {
	Backend     string        `default:"memory" usage:"Cart storage backend: memory, redis or postgres"`
	RedisAddr   string        `default:"localhost:6379" usage:"Redis address" flag:"redis-addr"`
	RedisPrefix string        `default:"storefront:" usage:"Prefix for Redis keys" flag:"redis-prefix"`
	RedisTTL    time.Duration `default:"0" usage:"Expiry of the persisted cart in Redis, 0 keeps it forever" flag:"redis-ttl"`
	DatabaseURL string        `usage:"PostgreSQL connection URL (STORE_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// CatalogConfig selects the product catalog source.
type CatalogConfig struct {
	SeedFile     string `default:"" usage:"Products JSON file (.json or .json.gz); empty uses the built-in catalog" flag:"seed-file"`
	FromDatabase bool   `default:"false" usage:"Serve the catalog from the PostgreSQL products table" flag:"catalog-from-db"`
}

// AuthConfig configures the user directory.
type AuthConfig struct {
	Pepper  string        `default:"" usage:"HMAC pepper for password hashing (STORE_AUTH_PEPPER)" flag:"auth-pepper"`
	Latency time.Duration `default:"1s" usage:"Simulated latency of login and signup" flag:"auth-latency"`
}

// CartConfig bounds cart storage calls.
type CartConfig struct {
	LoadTimeout time.Duration `default:"5s" usage:"Timeout of the initial cart load" flag:"cart-load-timeout"`
	SaveTimeout time.Duration `default:"5s" usage:"Timeout of a single cart save" flag:"cart-save-timeout"`
}

// RateLimitConfig controls the per-client limiter on auth endpoints.
type RateLimitConfig struct {
	Max    int           `default:"10" usage:"Auth requests a client may burst"`
	Window time.Duration `default:"1m" usage:"Time to refill the whole burst"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string      `default:"*" usage:"Allowed CORS origins"`
	MaxAge  time.Duration `default:"24h" usage:"Preflight cache duration" flag:"cors-max-age"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return errors.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	needsDB := c.Storage.Backend == BackendPostgres || c.Catalog.FromDatabase
	if needsDB && c.Storage.DatabaseURL == "" {
		return errors.New("database URL is required: set STORE_STORAGE_DATABASE_URL or DATABASE_URL")
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisAddr == "" {
		return errors.New("redis address is required for the redis backend")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the STORE_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
