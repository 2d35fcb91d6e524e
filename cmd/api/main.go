package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/foodgrid/backend-pos/internal/app"
	"github.com/foodgrid/backend-pos/internal/cart"
	"github.com/foodgrid/backend-pos/internal/common"
	"github.com/foodgrid/backend-pos/internal/config"
	"github.com/foodgrid/backend-pos/internal/device"
	"github.com/foodgrid/backend-pos/internal/events"
	"github.com/foodgrid/backend-pos/internal/health"
	"github.com/foodgrid/backend-pos/internal/lock"
	"github.com/foodgrid/backend-pos/internal/menu"
	"github.com/foodgrid/backend-pos/internal/obs"
	"github.com/foodgrid/backend-pos/internal/order"
	"github.com/foodgrid/backend-pos/internal/security"
	"github.com/foodgrid/backend-pos/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "foodgrid")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "foodgrid-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.MigrateOnStart {
		if err := app.RunMigrations(cfg.MigrationsURL, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	pool, err := app.NewDBPool(ctx, *cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisClient, err := app.NewRedis(*cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	taskClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	rateLimiter, err := app.NewRateLimiter(redisClient, int64(cfg.RateLimitRequests), cfg.RateLimitPeriod)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	bus := &events.Bus{Notifiers: []events.Notifier{
		events.LogNotifier{Logger: logger},
		events.MetricsNotifier{Counter: obs.DomainEventsTotal},
	}}

	snapshots := cart.NewRedisSnapshotStore(redisClient, cfg.CartSnapshotTTL)
	cartSvc := cart.NewService(snapshots, logger, bus)
	cartSvc.Locks = &lock.Locker{R: redisClient, RetryBackoff: cfg.CartLockBackoff}
	cartSvc.LockTTL = cfg.CartLockTTL

	menuSvc := menu.NewService(menu.NewPGRepo(pool), menu.NewCache(redisClient, cfg.MenuCacheTTL), logger)
	menuHandler := menu.NewHandler(menuSvc)

	cartHandler := cart.NewHandler(cartSvc, menuSvc, cfg.PricingTaxRateBPS, cfg.PricingServiceChargeBPS, cfg.CurrencyCode)

	orderSvc := &order.Service{
		Cart:       cartSvc,
		Orders:     order.NewPGRepo(pool),
		Locks:      lock.Locker{R: redisClient, RetryBackoff: cfg.CartLockBackoff},
		Bus:        bus,
		Tickets:    &order.Enqueuer{Client: taskClient, Queue: cfg.TicketQueue},
		Logger:     logger,
		TaxBps:     cfg.PricingTaxRateBPS,
		ServiceBps: cfg.PricingServiceChargeBPS,
		LockTTL:    cfg.CartLockTTL,
	}
	orderHandler := order.NewHandler(orderSvc)

	signer := app.DeviceTokenSigner{
		Secret: []byte(cfg.DeviceTokenSecret),
		Issuer: "foodgrid",
		TTL:    cfg.DeviceTokenTTL,
	}
	deviceHandler := device.NewHandler(device.NewPGRepo(pool), signer)

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	resolver := tenant.NewResolver(cfg.TenantHeader, cfg.TenantRootDomain, cfg.TenantDefault)

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(resolver.Middleware)
	r.Use(cart.SessionMiddleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:     envBool("SECURE_HEADERS", true),
		EnableHSTS: cfg.AppEnv == "production",
		HSTSMaxAge: 31536000,
	}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
	r.Use(mhttp.NewMiddleware(rateLimiter).Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", cfg.TenantHeader, cart.SessionHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/outlets/{outletId}", menuHandler.GetOutlet)
		v.Get("/outlets/{outletId}/menu", menuHandler.ListMenu)
		v.Get("/outlets/{outletId}/menu/items/{itemId}", menuHandler.GetItem)

		v.Post("/cart/session", cartHandler.CreateSession)
		v.Group(func(c chi.Router) {
			c.Use(cart.RequireSession)
			c.Get("/cart", cartHandler.Get)
			c.Get("/cart/item-quantity", cartHandler.ItemQuantity)
			c.Put("/cart/outlet", cartHandler.SetOutlet)
			c.Put("/cart/order-type", cartHandler.SetOrderType)
			c.Put("/cart/table", cartHandler.SetTable)
			c.Post("/cart/items", cartHandler.AddItem)
			c.Patch("/cart/items/{itemId}", cartHandler.UpdateItem)
			c.Patch("/cart/items/{itemId}/instructions", cartHandler.UpdateInstructions)
			c.Delete("/cart/items/{itemId}", cartHandler.RemoveItem)
			c.Delete("/cart", cartHandler.Clear)

			c.With(idem.Middleware).Post("/orders", orderHandler.Place)
			c.Get("/orders", orderHandler.List)
			c.Get("/orders/{orderId}", orderHandler.Get)
		})

		v.Post("/devices/register", deviceHandler.Register)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(device.RequireToken(signer))
			admin.Patch("/orders/{orderId}/status", orderHandler.UpdateStatus)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	return mux
}

func protectPprof(next http.Handler, user, pass string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user == "" || pass == "" {
			http.NotFound(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="pprof"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return time.Duration(fallback) * time.Millisecond
}
