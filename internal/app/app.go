package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/auth"
	cacheredis "github.com/mikesassatelli/offroad-parks-sub001/internal/cache/redis"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/config"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/event"
	handler "github.com/mikesassatelli/offroad-parks-sub001/internal/handler/http"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/metrics"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/rating"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository/memory"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository/postgres"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/seed"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/service"
	"github.com/mikesassatelli/offroad-parks-sub001/migrations"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/database"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/health"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/httpclient"
	pkgkafka "github.com/mikesassatelli/offroad-parks-sub001/pkg/kafka"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/middleware"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/tracing"
)

// ServiceName identifies this service in logs, metrics and traces.
const ServiceName = "parks-service"

// App wires together all dependencies and runs the parks service.
type App struct {
	cfg           *config.Config
	logger        *slog.Logger
	pool          *pgxpool.Pool
	redis         *redis.Client
	producer      *pkgkafka.Producer
	traceShutdown tracing.ShutdownFunc
	httpServer    *http.Server
}

// stores groups the repositories of whichever backend is configured.
type stores struct {
	reviews  repository.ReviewRepository
	votes    repository.HelpfulVoteRepository
	parks    repository.ParkRepository
	approved repository.ApprovedRatingsSource
	writer   repository.ParkRatingsWriter
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeResources(context.Background())
		}
	}()

	traceShutdown, err := tracing.Init(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.traceShutdown = traceShutdown
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	// Go runtime and process metrics come from the default gatherer.
	reg := prometheus.NewRegistry()
	healthHandler := health.NewHandler()

	st, err := a.openStore(ctx, reg, healthHandler)
	if err != nil {
		return nil, err
	}

	// Optional Redis park cache.
	var (
		parkCache  service.ParkCache
		engineOpts []rating.EngineOption
	)
	if cfg.CacheEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		c := cacheredis.NewParkCache(client, cfg.ParkCacheTTL())
		parkCache = c
		engineOpts = append(engineOpts, rating.WithCache(c))
		logger.Info("park cache enabled",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Duration("ttl", cfg.ParkCacheTTL()),
		)
	}

	// Optional Kafka producer. Without it events are dropped silently.
	var publisher event.Publisher
	if cfg.KafkaEnabled {
		producerCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		producerCfg.Metrics = pkgkafka.NewProducerMetrics(reg)
		a.producer = pkgkafka.NewProducer(producerCfg, logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	events := event.NewProducer(publisher, logger)

	// Build the dependency graph.
	workflow := metrics.NewWorkflow(reg)
	engineOpts = append(engineOpts, rating.WithNotifier(events), rating.WithMetrics(workflow))
	engine := rating.NewEngine(st.approved, st.writer, logger, engineOpts...)

	parkService := service.NewParkService(st.parks, parkCache, logger)
	reviewService := service.NewReviewService(st.reviews, st.parks, engine, events, workflow, logger)
	helpfulService := service.NewHelpfulService(st.reviews, st.votes, workflow, logger)

	validateToken, err := newTokenValidator(cfg, logger)
	if err != nil {
		return nil, err
	}

	var pprofCIDRs []string
	if cfg.PprofEnabled {
		pprofCIDRs = cfg.PprofAllowedCIDRs
	}
	var rateLimit *middleware.RateLimitConfig
	if cfg.RateLimitRPS > 0 {
		rateLimit = &middleware.RateLimitConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}
	}

	router := handler.NewRouter(parkService, reviewService, helpfulService, validateToken, healthHandler,
		handler.RouterConfig{
			ServiceName: ServiceName,
			CORS: middleware.CORSConfig{
				AllowedOrigins: cfg.CORSAllowedOrigins,
				Environment:    cfg.Environment,
			},
			CacheMaxAge: cfg.HTTPCacheMaxAge,
			HTTPMetrics: middleware.NewHTTPMetrics(reg, ServiceName),
			MetricsHandler: promhttp.HandlerFor(
				prometheus.Gatherers{reg, prometheus.DefaultGatherer},
				promhttp.HandlerOpts{},
			),
			RateLimit:  rateLimit,
			PprofCIDRs: pprofCIDRs,
		},
		logger,
	)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ok = true
	return a, nil
}

// openStore connects the configured backend and registers its health check.
func (a *App) openStore(ctx context.Context, reg prometheus.Registerer, healthHandler *health.Handler) (*stores, error) {
	if a.cfg.StoreDriver == config.StoreDriverMemory {
		store := memory.NewStore()
		parks := seed.DemoParks()
		seed.Memory(store, parks)
		a.logger.Warn("using in-memory store, data is lost on restart",
			slog.Int("seeded_parks", len(parks)),
		)
		reviews := store.Reviews()
		return &stores{
			reviews:  reviews,
			votes:    store.HelpfulVotes(),
			parks:    store.Parks(),
			approved: reviews,
			writer:   store.RatingsWriter(),
		}, nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, pgCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)

	if a.cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	reg.MustRegister(database.NewPoolStatsCollector(pool, ServiceName))
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	reviews := postgres.NewReviewRepository(pool)
	return &stores{
		reviews:  reviews,
		votes:    postgres.NewHelpfulVoteRepository(pool),
		parks:    postgres.NewParkRepository(pool),
		approved: reviews,
		writer:   postgres.NewParkRatingsWriter(pool),
	}, nil
}

// newTokenValidator builds the identity provider selected by AUTH_MODE.
func newTokenValidator(cfg *config.Config, logger *slog.Logger) (middleware.TokenValidator, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		return auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer).Validate, nil
	case config.AuthModeSession:
		cb := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("identity-provider"),
			logger,
		)
		logger.Info("using session introspection",
			slog.String("url", cfg.SessionIntrospectURL),
		)
		return auth.NewSessionClient(cb, cfg.SessionIntrospectURL, logger).Validate, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.closeResources(shutdownCtx)

	a.logger.Info("application shutdown complete")
	return nil
}

// closeResources releases whatever NewApp managed to open.
func (a *App) closeResources(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.traceShutdown != nil {
		if err := a.traceShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
