package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	ClinicAPI ClinicAPIConfig
	Session   SessionConfig
	Redis     RedisConfig
	Mongo     MongoConfig
	Audit     AuditConfig

	// AuthRateLimit is the per-IP requests/second allowed on /login and /register.
	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT, default=5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST, default=10"`
	// StockAlertThreshold marks medicines at or below this quantity as low stock.
	StockAlertThreshold int `env:"STOCK_ALERT_THRESHOLD, default=10"`
}

type ClinicAPIConfig struct {
	BaseURL string        `env:"CLINIC_API_URL,     default=http://localhost:8000/api"`
	Timeout time.Duration `env:"CLINIC_API_TIMEOUT, default=30s"`
}

// DefaultSessionSecret is only accepted in development.
const DefaultSessionSecret = "change-me-in-production-please"

type SessionConfig struct {
	Secret     string        `env:"SESSION_SECRET,   default=change-me-in-production-please"`
	CookieName string        `env:"SESSION_COOKIE,   default=clinic_portal"`
	IdleTTL    time.Duration `env:"SESSION_IDLE_TTL, default=30m"`
	// Backend selects where the token and cached user are persisted: redis or memory.
	Backend    string        `env:"STORAGE_BACKEND,  default=redis"`
	StorageTTL time.Duration `env:"STORAGE_TTL,      default=168h"`
	// CookieSecure marks the visitor cookie Secure; enable behind TLS.
	CookieSecure bool `env:"SESSION_COOKIE_SECURE, default=false"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=clinic_portal"`
}

type AuditConfig struct {
	Enabled bool `env:"AUDIT_ENABLED, default=true"`
	Workers int  `env:"AUDIT_WORKERS, default=4"`
	// Retention drops audit records after this long; zero keeps them.
	Retention time.Duration `env:"AUDIT_RETENTION, default=2160h"`
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWithLookuper(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWithLookuper resolves configuration from an arbitrary lookuper and
// validates the values the rest of the service relies on.
func LoadWithLookuper(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	switch cfg.Session.Backend {
	case StorageRedis, StorageMemory:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.Session.Backend)
	}
	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = 1
	}
	if cfg.AuthRateBurst <= 0 {
		cfg.AuthRateBurst = 1
	}
	if len(cfg.Session.Secret) < 16 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 16 bytes")
	}
	if cfg.Session.Secret == DefaultSessionSecret && !cfg.IsDevelopment() {
		return nil, fmt.Errorf("SESSION_SECRET must be set when ENV=%s", cfg.Env)
	}
	return &cfg, nil
}
