package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	SlotBackendMemory = "memory"
	SlotBackendRedis  = "redis"
	SlotBackendDB     = "db"

	EnvAppEnv        = "STOREFRONT_APP_ENV"
	EnvPort          = "STOREFRONT_APP_PORT"
	EnvLogLevel      = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat     = "STOREFRONT_LOG_FORMAT"
	EnvAPIBaseURL    = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout    = "STOREFRONT_API_TIMEOUT"
	EnvSlotBackend   = "STOREFRONT_SLOT_BACKEND"
	EnvSlotTTL       = "STOREFRONT_SLOT_TTL"
	EnvDBDriver      = "STOREFRONT_DB_DRIVER"
	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvRedisURL      = "STOREFRONT_REDIS_URL"
	EnvRedisAddr     = "STOREFRONT_REDIS_ADDR"
	EnvWhatsAppPhone = "STOREFRONT_WHATSAPP_NUMBER"
	EnvSubmitTimeout = "STOREFRONT_CHECKOUT_SUBMIT_TIMEOUT"
	EnvFreeShipping  = "STOREFRONT_FREE_SHIPPING_THRESHOLD"
	EnvFlatShipping  = "STOREFRONT_FLAT_SHIPPING_FEE"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Slot     SlotConfig
	DB       DBConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
	Reviews  ReviewsConfig
	Admin    AdminConfig
	Session  SessionConfig
	CORS     CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.API.BaseURL); err != nil {
		return fmt.Errorf("%s must be an absolute url: %w", EnvAPIBaseURL, err)
	}
	switch c.Slot.Backend {
	case SlotBackendMemory:
	case SlotBackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s or %s is required for the redis slot backend", EnvRedisURL, EnvRedisAddr)
		}
	case SlotBackendDB:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required for the db slot backend", EnvDBDSN)
		}
		if c.DB.Driver != "postgres" && c.DB.Driver != "sqlite" {
			return fmt.Errorf("%s must be postgres or sqlite, got %q", EnvDBDriver, c.DB.Driver)
		}
	default:
		return fmt.Errorf("%s must be one of memory, redis, db; got %q", EnvSlotBackend, c.Slot.Backend)
	}
	if _, err := c.Checkout.FreeShippingThreshold(); err != nil {
		return err
	}
	if _, err := c.Checkout.FlatShippingFee(); err != nil {
		return err
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points at the remote REST API that owns products, orders and reviews.
type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" default:"http://localhost:5000/api"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"10s"`
}

type SlotConfig struct {
	Backend string        `envconfig:"STOREFRONT_SLOT_BACKEND" default:"memory"`
	CartKey string        `envconfig:"STOREFRONT_SLOT_CART_KEY" default:"cart"`
	TTL     time.Duration `envconfig:"STOREFRONT_SLOT_TTL" default:"720h"`
}

type DBConfig struct {
	Driver      string `envconfig:"STOREFRONT_DB_DRIVER" default:"sqlite"`
	DSN         string `envconfig:"STOREFRONT_DB_DSN" default:"file:storefront.db?cache=shared"`
	AutoMigrate bool   `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis connection was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type CheckoutConfig struct {
	WhatsAppNumber    string        `envconfig:"STOREFRONT_WHATSAPP_NUMBER" default:"254711111602"`
	SubmitTimeout     time.Duration `envconfig:"STOREFRONT_CHECKOUT_SUBMIT_TIMEOUT" default:"10s"`
	SubmitRetries     uint64        `envconfig:"STOREFRONT_CHECKOUT_SUBMIT_RETRIES" default:"2"`
	SubmitBackoff     time.Duration `envconfig:"STOREFRONT_CHECKOUT_SUBMIT_BACKOFF" default:"250ms"`
	SubmitLockTTL     time.Duration `envconfig:"STOREFRONT_CHECKOUT_SUBMIT_LOCK_TTL" default:"1m"`
	SessionIdleTTL    time.Duration `envconfig:"STOREFRONT_CHECKOUT_SESSION_TTL" default:"2h"`
	FreeShippingAbove string        `envconfig:"STOREFRONT_FREE_SHIPPING_THRESHOLD" default:"10000"`
	FlatShipping      string        `envconfig:"STOREFRONT_FLAT_SHIPPING_FEE" default:"500"`
	DefaultCity       string        `envconfig:"STOREFRONT_CHECKOUT_DEFAULT_CITY" default:"Nairobi"`
}

// FreeShippingThreshold parses the configured threshold as an exact decimal.
func (c CheckoutConfig) FreeShippingThreshold() (decimal.Decimal, error) {
	return parseAmount(EnvFreeShipping, c.FreeShippingAbove)
}

// FlatShippingFee parses the configured delivery fee as an exact decimal.
func (c CheckoutConfig) FlatShippingFee() (decimal.Decimal, error) {
	return parseAmount(EnvFlatShipping, c.FlatShipping)
}

func parseAmount(name, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number: %w", name, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", name)
	}
	return amount, nil
}

type ReviewsConfig struct {
	SubmitWindow time.Duration `envconfig:"STOREFRONT_REVIEWS_SUBMIT_WINDOW" default:"1m"`
	SubmitLimit  int64         `envconfig:"STOREFRONT_REVIEWS_SUBMIT_LIMIT" default:"1"`
}

// AdminConfig throttles the back-office login endpoint per client IP.
type AdminConfig struct {
	LoginWindow  time.Duration `envconfig:"STOREFRONT_ADMIN_LOGIN_WINDOW" default:"15m"`
	LoginIPLimit int           `envconfig:"STOREFRONT_ADMIN_LOGIN_IP_LIMIT" default:"10"`
}

type SessionConfig struct {
	SecureCookie bool `envconfig:"STOREFRONT_SESSION_SECURE_COOKIE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}
