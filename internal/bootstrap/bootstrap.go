package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/scalp-assistant/internal/adapters/http/openapi"
	"github.com/kirillkom/scalp-assistant/internal/config"
	"github.com/kirillkom/scalp-assistant/internal/core/ports"
	"github.com/kirillkom/scalp-assistant/internal/core/staging"
	"github.com/kirillkom/scalp-assistant/internal/core/usecase"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/catalog"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/inference/modelserver"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/security"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/session/memstore"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/session/redisstore"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/scalp-assistant/internal/observability/metrics"
)

const healthCheckTimeout = 5 * time.Second

type App struct {
	Config config.Config

	Subscriber ports.EventSubscriber
	PredictUC  *usecase.PredictUseCase
	AuthUC     *usecase.AuthUseCase
	StatsUC    *usecase.StatsUseCase
	Stager     *staging.Classifier
	Catalog    *catalog.Catalog
	OpenAPI    []byte
	Metrics    *metrics.HTTPServerMetrics

	closeFn func()
}

// New wires every adapter for service. The model server is checked once at
// startup; an unhealthy model only logs a warning so the API can still serve
// history and staging while inference recovers.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	if _, err := openapi.Load(ctx); err != nil {
		return nil, err
	}
	diseases, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("load disease catalog: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	sessions, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		closeSessions()
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	breakerObserver := resilience.WithStateObserver(func(operation string, _, to gobreaker.State) {
		httpMetrics.SetBreakerState(service, operation, breakerStateValue(to))
	})

	baseResilience := resilienceConfig(cfg)
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: resilience.NewExecutor(baseResilience, breakerObserver),
	})
	if err != nil {
		closeSessions()
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	modelResilience := baseResilience
	modelResilience.RateLimitRPS = cfg.ModelServerRPS
	modelResilience.RateLimitBurst = cfg.ModelServerBurst
	model := modelserver.New(cfg.ModelServerURL, modelserver.Options{
		Timeout:            cfg.ModelServerTimeout,
		MaxImageBytes:      cfg.UploadMaxBytes,
		ResilienceExecutor: resilience.NewExecutor(modelResilience, breakerObserver),
		Observer: func(outcome string, elapsed time.Duration) {
			httpMetrics.ObserveInference(service, outcome, elapsed)
		},
	})
	healthCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	if err := model.Health(healthCtx); err != nil {
		slog.Warn("model_server_unhealthy", "url", cfg.ModelServerURL, "error", err)
	}
	cancel()

	stager := staging.NewClassifier(staging.WithLocation(cfg.Location()))

	predictUC := usecase.NewPredictUseCase(
		storage,
		model,
		stager,
		postgres.NewPredictionRepository(db),
		queue,
		xlsx.NewExporter(),
	)
	authUC := usecase.NewAuthUseCase(
		postgres.NewUserRepository(db),
		sessions,
		security.NewBcryptHasher(cfg.BcryptCost),
	)
	statsUC := usecase.NewStatsUseCase(postgres.NewStatsRepository(db))

	return &App{
		Config:     cfg,
		Subscriber: queue,
		PredictUC:  predictUC,
		AuthUC:     authUC,
		StatsUC:    statsUC,
		Stager:     stager,
		Catalog:    diseases,
		OpenAPI:    openapi.Document(),
		Metrics:    httpMetrics,

		closeFn: func() {
			queue.Close()
			closeSessions()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// openSessionStore uses Redis when REDIS_URL is set and process memory otherwise.
func openSessionStore(ctx context.Context, cfg config.Config) (ports.SessionStore, func(), error) {
	if cfg.RedisURL == "" {
		slog.Info("session_store_selected", "backend", "memory", "ttl", cfg.SessionTTL.String())
		return memstore.New(cfg.SessionCacheSize, cfg.SessionTTL), func() {}, nil
	}
	client, err := redisstore.Open(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	slog.Info("session_store_selected", "backend", "redis", "ttl", cfg.SessionTTL.String())
	return redisstore.New(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:        cfg.RetryMaxAttempts,
		RetryInitialBackoff:     cfg.RetryInitialBackoff,
		RetryMaxBackoff:         cfg.RetryMaxBackoff,
		RetryMultiplier:         cfg.RetryMultiplier,
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.BreakerHalfOpenMaxCalls, 0)),
	}
}

func breakerStateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
