package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const defaultJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the marketplace.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Marketplace  MarketplaceConfig
	Notification NotificationConfig
	Broker       BrokerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN               string
	ApplicationName   string
	MaxConns          int32
	MinConns          int32
	RunMigrations     bool
	ConnectTimeoutSec int
	ConnMaxIdleSec    int32
	ConnMaxLifeSec    int32
}

// RedisConfig holds Redis connection values. An empty Addr keeps revoked
// sessions in process memory.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// MarketplaceConfig holds the trading rules.
type MarketplaceConfig struct {
	InitialBalance int64
	// ServiceFee and Tax are multipliers applied in sequence to price*quantity.
	ServiceFee decimal.Decimal
	Tax        decimal.Decimal
}

// BrokerConfig enables forwarding marketplace events to RabbitMQ.
type BrokerConfig struct {
	URL      string
	Exchange string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
// Optional env files are loaded first; variables already set win.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	market, err := loadMarketplace()
	if err != nil {
		return nil, err
	}

	appName := getEnv("APP_NAME", "ticket-marketplace")
	cfg := &Config{
		App: AppConfig{
			Name:                  appName,
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:               os.Getenv("POSTGRES_DSN"),
			ApplicationName:   getEnv("POSTGRES_APPLICATION_NAME", appName),
			MaxConns:          int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:     getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnectTimeoutSec: getEnvAsInt("POSTGRES_CONNECT_TIMEOUT_SECONDS", 5),
			ConnMaxIdleSec:    int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:    int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      os.Getenv("REDIS_ADDR"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "marketplace:"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", defaultJWTSecret),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Marketplace: market,
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Broker: BrokerConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getEnv("AMQP_EXCHANGE", "marketplace.events"),
		},
	}

	if cfg.App.Env == "production" && cfg.Auth.JWTSecret == defaultJWTSecret {
		return nil, errors.New("AUTH_JWT_SECRET must be set in production")
	}
	return cfg, nil
}

func loadMarketplace() (MarketplaceConfig, error) {
	fee, err := getEnvAsDecimal("MARKET_SERVICE_FEE", "1.35")
	if err != nil {
		return MarketplaceConfig{}, err
	}
	tax, err := getEnvAsDecimal("MARKET_TAX", "1.05")
	if err != nil {
		return MarketplaceConfig{}, err
	}
	one := decimal.NewFromInt(1)
	if fee.LessThan(one) || tax.LessThan(one) {
		return MarketplaceConfig{}, errors.New("MARKET_SERVICE_FEE and MARKET_TAX must be at least 1")
	}

	balance, err := strconv.ParseInt(getEnv("MARKET_INITIAL_BALANCE", "5000"), 10, 64)
	if err != nil {
		return MarketplaceConfig{}, fmt.Errorf("invalid MARKET_INITIAL_BALANCE: %w", err)
	}
	if balance <= 0 {
		return MarketplaceConfig{}, errors.New("MARKET_INITIAL_BALANCE must be positive")
	}
	return MarketplaceConfig{InitialBalance: balance, ServiceFee: fee, Tax: tax}, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ConnectTimeout bounds the initial pool ping.
func (p PostgresConfig) ConnectTimeout() time.Duration {
	if p.ConnectTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.ConnectTimeoutSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// Unlike the int and bool helpers, a malformed decimal is an error: money
// rules must not silently fall back.
func getEnvAsDecimal(key, fallback string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
