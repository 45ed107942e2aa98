// Package app wires the booking service together and runs it.
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
	"github.com/redis/go-redis/v9"

	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/auth"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/cache"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/config"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/event"
	handler "github.com/tanzil-def/Doctor-Appointment-Backend/internal/handler/http"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/repository/postgres"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/service"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage/local"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage/memory"
	"github.com/tanzil-def/Doctor-Appointment-Backend/internal/storage/remote"
	"github.com/tanzil-def/Doctor-Appointment-Backend/migrations"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/database"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/health"
	pkgkafka "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/kafka"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/middleware"
	"github.com/tanzil-def/Doctor-Appointment-Backend/pkg/tracing"
)

const (
	serviceName        = "booking"
	serviceVersion     = "0.1.0"
	slowQueryThreshold = 200 * time.Millisecond
)

// App owns every long-lived resource of the booking service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	cancel         context.CancelFunc
}

// NewApp connects to every backing service, applies migrations and builds
// the HTTP server. Resources opened before a failure are released.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.tracerShutdown, err = tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	if a.pool, err = OpenDatabase(ctx, cfg, logger); err != nil {
		return nil, err
	}
	database.SetSlowQueryLogging(slowQueryThreshold, logger)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if cfg.RedisURL != "" {
		if a.redis, err = database.NewRedisClient(ctx, cfg.RedisURL); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis")
	} else {
		logger.Info("REDIS_URL not set, doctor directory cache disabled")
	}

	var publisher event.Publisher
	if cfg.EventsEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("KAFKA_BROKERS not set, domain events disabled")
	}

	media, mediaDir, err := newMediaStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("init token service: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	accounts := postgres.NewAccountRepository(a.pool)
	doctors := postgres.NewDoctorRepository(a.pool)
	appointments := postgres.NewAppointmentRepository(a.pool)
	payments := postgres.NewPaymentRepository(a.pool)
	events := event.NewProducer(publisher, logger)

	appointmentService := service.NewAppointmentService(appointments, doctors, events, logger)
	svc := handler.Services{
		Auth:        service.NewAuthService(accounts, postgres.NewRefreshTokenRepository(a.pool), tokens, hasher, events, logger),
		Profile:     service.NewProfileService(accounts, media, logger),
		Doctor:      service.NewDoctorService(doctors, hasher, media, cache.NewDoctorCache(a.redis, cfg.DoctorCacheTTL), events, logger),
		Appointment: appointmentService,
		Document:    service.NewDocumentService(postgres.NewDocumentRepository(a.pool), appointmentService, media, logger),
		Payment:     service.NewPaymentService(payments, appointmentService, events, logger),
		Dashboard:   service.NewDashboardService(accounts, doctors, appointments, payments),
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})
	if a.redis != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return a.producer.Ping(ctx)
		})
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	// The router's rate limiter janitor lives until shutdown.
	routerCtx, routerCancel := context.WithCancel(context.Background())
	a.cancel = routerCancel
	router := handler.NewRouter(routerCtx, svc, auth.NewGate(tokens, accounts), healthHandler, logger, handler.RouterConfig{
		CORS:               cors,
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
		AuthRateLimitBurst: cfg.AuthRateLimitBurst,
		MaxUploadBytes:     cfg.MaxUploadBytes(),
		MediaDir:           mediaDir,
		MediaBaseURL:       cfg.MediaBaseURL,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// OpenDatabase connects to PostgreSQL and applies pending migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := database.NewPostgresPool(ctx, database.DefaultPostgresConfig(cfg.DatabaseURL), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return pool, nil
}

// NewAuthService builds the account service on an open pool, for tools that
// need account maintenance without the HTTP stack.
func NewAuthService(pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) (*service.AuthService, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("init token service: %w", err)
	}
	return service.NewAuthService(
		postgres.NewAccountRepository(pool),
		postgres.NewRefreshTokenRepository(pool),
		tokens,
		auth.NewPasswordHasher(cfg.BcryptCost),
		event.NewProducer(nil, logger),
		logger,
	), nil
}

// newMediaStorage picks the media backend. The returned directory is
// non-empty only for the local backend, whose files the router serves.
func newMediaStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, string, error) {
	switch cfg.MediaBackend {
	case config.MediaRemote:
		s, err := remote.New(remote.Config{Endpoint: cfg.MediaRemoteURL, APIKey: cfg.MediaRemoteAPIKey}, nil, logger)
		if err != nil {
			return nil, "", fmt.Errorf("init remote media: %w", err)
		}
		logger.Info("media backend: remote", slog.String("endpoint", cfg.MediaRemoteURL))
		return s, "", nil
	case config.MediaMemory:
		logger.Warn("media backend: memory, uploads are lost on restart")
		return memory.New(cfg.MediaBaseURL), "", nil
	default:
		s, err := local.New(cfg.MediaDir, cfg.MediaBaseURL)
		if err != nil {
			return nil, "", err
		}
		logger.Info("media backend: local", slog.String("dir", s.Root()))
		return s, s.Root(), nil
	}
}

// Run serves HTTP until ctx is cancelled or the server fails, then shuts
// everything down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
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

// Shutdown drains HTTP first, then flushes spans, then closes the
// producer, Redis and the pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error
	if a.httpServer != nil {
		httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer httpCancel()
		if err := a.httpServer.Shutdown(httpCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	errs = append(errs, a.close())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// close releases everything except the HTTP server. Fields may be nil when
// NewApp failed part way.
func (a *App) close() error {
	var errs []error

	if a.cancel != nil {
		a.cancel()
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
