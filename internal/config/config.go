package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	TenantHeader     string
	TenantRootDomain string
	TenantDefault    string

	CartSnapshotTTL  time.Duration
	CartLockTTL      time.Duration
	CartLockBackoff  time.Duration
	MenuCacheTTL     time.Duration
	MenuDefaultLimit int
	MenuMaxLimit     int
	IdempotencyTTL   time.Duration

	PricingTaxRateBPS       int
	PricingServiceChargeBPS int
	CurrencyCode            string

	RateLimitRequests int
	RateLimitPeriod   time.Duration
	BodyLimitBytes    int64

	MigrateOnStart bool
	MigrationsURL  string

	TicketQueue       string
	WorkerConcurrency int

	DeviceTokenSecret string
	DeviceTokenTTL    time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		TenantHeader:     valueOrDefault(k.String("TENANT_HEADER"), "X-Tenant-ID"),
		TenantRootDomain: strings.TrimSpace(k.String("TENANT_ROOT_DOMAIN")),
		TenantDefault:    valueOrDefault(k.String("TENANT_DEFAULT"), "default"),

		CartSnapshotTTL:  parseDuration(k.String("CART_SNAPSHOT_TTL"), "168h"),
		CartLockTTL:      parseDuration(k.String("CART_LOCK_TTL"), "5s"),
		CartLockBackoff:  parseDuration(k.String("CART_LOCK_BACKOFF"), "25ms"),
		MenuCacheTTL:     parseDuration(k.String("MENU_CACHE_TTL"), "10m"),
		MenuDefaultLimit: parseInt(k.String("MENU_DEFAULT_LIMIT"), 50),
		MenuMaxLimit:     parseInt(k.String("MENU_MAX_LIMIT"), 200),
		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		PricingTaxRateBPS:       parseInt(k.String("PRICING_TAX_RATE_BPS"), 500),
		PricingServiceChargeBPS: parseInt(k.String("PRICING_SERVICE_CHARGE_BPS"), 0),
		CurrencyCode:            valueOrDefault(k.String("CURRENCY_CODE"), "INR"),

		RateLimitRequests: parseInt(k.String("RATE_LIMIT_REQUESTS"), 120),
		RateLimitPeriod:   parseDuration(k.String("RATE_LIMIT_PERIOD"), "1m"),
		BodyLimitBytes:    int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),

		MigrateOnStart: parseBool(k.String("MIGRATE_ON_START")),
		MigrationsURL:  valueOrDefault(k.String("MIGRATIONS_URL"), "file://migrations"),

		TicketQueue:       valueOrDefault(k.String("TICKET_QUEUE"), "kitchen"),
		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 4),

		DeviceTokenSecret: k.String("DEVICE_TOKEN_SECRET"),
		DeviceTokenTTL:    parseDuration(k.String("DEVICE_TOKEN_TTL"), "12h"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.MenuMaxLimit < cfg.MenuDefaultLimit {
		cfg.MenuMaxLimit = cfg.MenuDefaultLimit
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
