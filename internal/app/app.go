package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Djamauk/himalayanpinksalt.online/internal/config"
	"github.com/Djamauk/himalayanpinksalt.online/internal/event"
	handler "github.com/Djamauk/himalayanpinksalt.online/internal/handler/http"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository/kv"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository/memory"
	redisrepo "github.com/Djamauk/himalayanpinksalt.online/internal/repository/redis"
	"github.com/Djamauk/himalayanpinksalt.online/internal/service"
	"github.com/Djamauk/himalayanpinksalt.online/pkg/health"
	pkgkafka "github.com/Djamauk/himalayanpinksalt.online/pkg/kafka"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	sessions   *memory.SessionStore
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize Redis client.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	store := redisrepo.NewStore(rdb, logger)
	sessions := memory.NewSessionStore()
	eventProducer := event.NewProducer(producer, logger)

	accountService := service.NewAccountService(
		kv.NewAddressRepository(store),
		kv.NewPaymentMethodRepository(store),
		kv.NewProfileRepository(store),
		kv.NewPreferencesRepository(store),
		eventProducer,
		logger,
	)
	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	checkoutService := service.NewCheckoutService(
		sessions,
		kv.NewAddressRepository(store),
		accountService,
		eventProducer,
		logger,
		sessionTTL,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(checkoutService, accountService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		producer:   producer,
		sessions:   sessions,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and the session sweeper, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go a.sweepSessions(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// sweepSessions periodically drops expired checkout sessions.
func (a *App) sweepSessions(ctx context.Context) {
	interval := time.Duration(a.cfg.SessionSweepMins) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := a.sessions.PurgeExpired(ctx, now.UTC()); removed > 0 {
				a.logger.Info("purged expired checkout sessions", slog.Int("count", removed))
			}
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(a.cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
