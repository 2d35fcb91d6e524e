package app

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/foodgrid/backend-pos/internal/config"
	"github.com/foodgrid/backend-pos/internal/obs"
)

// NewDBPool opens the shared Postgres pool with query tracing attached.
func NewDBPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.ConnConfig.Tracer = &obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	return pool, nil
}

// NewRedis opens the shared redis client with OTel instrumentation.
func NewRedis(cfg config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	return client, nil
}

// NewRateLimiter wires the per-IP request limiter over redis.
func NewRateLimiter(rdb *redis.Client, requests int64, period time.Duration) (*limiter.Limiter, error) {
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "ratelimit",
	})
	if err != nil {
		return nil, fmt.Errorf("limiter store: %w", err)
	}
	return limiter.New(store, limiter.Rate{Limit: requests, Period: period}), nil
}

// RunMigrations applies pending schema migrations at startup.
func RunMigrations(sourceURL, databaseURL string) error {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// HashStaffPIN hashes an outlet staff PIN for storage.
func HashStaffPIN(pin string) (string, error) {
	return argon2id.CreateHash(pin, argon2id.DefaultParams)
}

// VerifyStaffPIN checks a PIN against its stored hash.
func VerifyStaffPIN(pin, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(pin, hash)
}

// DeviceTokenSigner issues signed tokens for registered counter and
// kitchen display devices.
type DeviceTokenSigner struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Sign mints a token for a device bound to an outlet.
func (s DeviceTokenSigner) Sign(deviceID, outletID string) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := time.Now().UTC()
	tok, err := jwt.NewBuilder().
		Issuer(s.Issuer).
		Subject(deviceID).
		Claim("outlet_id", outletID).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build device token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.Secret))
	if err != nil {
		return "", fmt.Errorf("sign device token: %w", err)
	}
	return string(signed), nil
}

// Verify checks a device token and returns the device id and outlet id.
func (s DeviceTokenSigner) Verify(raw string) (deviceID, outletID string, err error) {
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, s.Secret), jwt.WithIssuer(s.Issuer))
	if err != nil {
		return "", "", fmt.Errorf("parse device token: %w", err)
	}
	outlet, _ := tok.Get("outlet_id")
	outletStr, _ := outlet.(string)
	return tok.Subject(), outletStr, nil
}

// Tracer returns the named OpenTelemetry tracer.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Meter returns the named OpenTelemetry meter.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
