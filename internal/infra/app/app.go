package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MHafidafandi/sipeduli-console/internal/api"
	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
	"github.com/MHafidafandi/sipeduli-console/internal/guard"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/config"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/database"
	kafkainfra "github.com/MHafidafandi/sipeduli-console/internal/infra/kafka"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/logger"
	redisinfra "github.com/MHafidafandi/sipeduli-console/internal/infra/redis"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/security"
	"github.com/MHafidafandi/sipeduli-console/internal/infra/telemetry"
	"github.com/MHafidafandi/sipeduli-console/internal/permission"
	"github.com/MHafidafandi/sipeduli-console/internal/repository/memory"
	postgresrepo "github.com/MHafidafandi/sipeduli-console/internal/repository/postgres"
	redisrepo "github.com/MHafidafandi/sipeduli-console/internal/repository/redis"
	"github.com/MHafidafandi/sipeduli-console/internal/session"
	"github.com/MHafidafandi/sipeduli-console/internal/transport/http/middleware"
	"github.com/MHafidafandi/sipeduli-console/internal/transport/http/routes"
)

// Version is stamped at build time.
var Version = "dev"

type Application struct {
	cfg      *config.AppConfig
	handler  http.Handler
	logger   *zap.Logger
	replica  string
	tracer   *telemetry.TracerProvider
	manager  *session.Manager
	storage  port.Storage
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log, replica: uuid.NewString()}
	if err := a.init(ctx); err != nil {
		a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *Application) init(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, Version, log)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	a.tracer = tracer

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Redis is mandatory for the redis storage driver and optional for the login throttle.
	if cfg.Storage.Driver == "redis" || cfg.Redis.Host != "" {
		redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, log)
		switch {
		case err == nil:
			a.redis = redisClient
			if err := redisClient.RegisterPoolMetrics(registry); err != nil {
				return fmt.Errorf("register redis metrics: %w", err)
			}
		case cfg.Storage.Driver == "redis":
			return fmt.Errorf("init redis: %w", err)
		default:
			log.Warn("redis unavailable, login throttle disabled", zap.Error(err))
		}
	}

	storage, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	a.storage = storage

	sessionMetrics, err := session.NewMetrics(session.MetricsOptions{Registerer: registry})
	if err != nil {
		return fmt.Errorf("init session metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	client, err := session.NewClient(session.Config{
		BaseURL:        cfg.API.BaseURL,
		RefreshPath:    cfg.API.RefreshPath,
		RefreshMethod:  cfg.API.RefreshMethod,
		RefreshTimeout: cfg.API.RefreshTimeout,
		RequestTimeout: cfg.API.RequestTimeout,
	}, storage,
		session.WithLogger(log),
		session.WithMetrics(sessionMetrics),
		session.WithTracerProvider(tracer.Provider()),
	)
	if err != nil {
		return fmt.Errorf("init session client: %w", err)
	}

	a.manager = session.NewManager(client, session.ManagerConfig{
		LoginPath:    cfg.Session.LoginPath,
		LogoutPath:   cfg.Session.LogoutPath,
		ProfilePath:  cfg.Session.ProfilePath,
		PasswordPath: cfg.Session.PasswordPath,
		RefreshSkew:  cfg.Session.RefreshSkew,
	},
		session.WithManagerLogger(log),
		session.WithManagerMetrics(sessionMetrics),
		session.WithPasswordPolicy(security.NewPasswordPolicy(cfg.Password.MinLength, cfg.Password.MinScore)),
		session.WithPublisher(a.openPublisher()),
	)

	matrix, err := permission.ParseMatrix(cfg.Permission.Matrix)
	if err != nil {
		return fmt.Errorf("parse permission matrix: %w", err)
	}
	factory, err := permission.NewFactory(cfg.Permission.Mode, matrix)
	if err != nil {
		return fmt.Errorf("init permission resolver: %w", err)
	}
	gate := guard.New(factory,
		guard.WithRestoreWait(cfg.Session.RestoreWait),
		guard.WithObserver(func(outcome guard.Outcome) {
			httpMetrics.ObserveGate(outcome.String())
		}),
	)

	var rateLimiter *middleware.RateLimiter
	if a.redis != nil {
		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}
		rateLimiter = middleware.NewRateLimiter(redisrepo.NewRateLimitRepository(a.redis.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: cfg.Redis.RateLimitPrefix,
			TTL:       window * 2,
		}), log)
	}

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Sessions:    a.manager,
		Guard:       gate,
		Services:    api.New(client),
		RateLimiter: rateLimiter,
		Metrics:     httpMetrics,
		Gatherer:    registry,
	}
	if checker, ok := storage.(routes.HealthChecker); ok {
		deps.Storage = checker
	}
	if a.pool != nil {
		deps.Database = a.pool
	}
	if a.redis != nil {
		deps.Cache = a.redis
	}

	a.handler = otelhttp.NewHandler(routes.Register(deps), "console",
		otelhttp.WithTracerProvider(tracer.Provider()),
	)
	return nil
}

// openStorage selects the client storage backend named by storage.driver.
func (a *Application) openStorage(ctx context.Context) (port.Storage, error) {
	cfg, log := a.cfg, a.logger

	switch cfg.Storage.Driver {
	case "redis":
		return redisrepo.NewStorage(a.redis.Client(), redisrepo.StorageConfig{
			KeyPrefix: cfg.Storage.KeyPrefix,
			Channel:   cfg.Storage.Channel,
			TTL:       cfg.Storage.TTL,
		}, log), nil
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		a.pool = pool
		store := postgresrepo.NewPoolStorage(pool, postgresrepo.StorageConfig{
			Channel: cfg.Storage.Channel,
			TTL:     cfg.Storage.TTL,
		}, log)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure storage schema: %w", err)
		}
		return store, nil
	default:
		return memory.NewStorage(), nil
	}
}

// openPublisher returns the Kafka session event publisher, or a logging stub when no
// broker is configured or reachable.
func (a *Application) openPublisher() port.SessionEventPublisher {
	cfg, log := a.cfg, a.logger

	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(log)
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(log)
	}
	a.producer = producer
	log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, cfg.App, a.replica, log)
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.closeResources()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting SI-PEDULI console",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("replica", a.replica),
		zap.String("storage", a.cfg.Storage.Driver),
	)

	g, gctx := errgroup.WithContext(ctx)

	if notifier, ok := a.storage.(port.ChangeNotifier); ok {
		g.Go(func() error {
			if err := a.manager.Watch(gctx, notifier); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn("storage watch stopped", zap.Error(err))
			}
			return nil
		})
	}

	if a.producer != nil {
		consumer := kafkainfra.NewSessionEventConsumer(a.manager, a.replica, a.logger)
		g.Go(func() error {
			if err := kafkainfra.RunSessionConsumer(gctx, a.cfg.Kafka, a.replica, consumer, a.logger); err != nil {
				a.logger.Warn("session event consumer stopped", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *Application) closeResources() {
	if a.manager != nil {
		a.manager.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Warn("failed to shut down tracer", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
