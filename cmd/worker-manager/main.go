// cmd/worker-manager/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quote-workers/internal/api"
	"quote-workers/internal/common/camunda"
	"quote-workers/internal/common/config"
	"quote-workers/internal/common/database"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/observability"
	"quote-workers/internal/formstore"
	"quote-workers/internal/quote"
	"quote-workers/pkg/registry"

	vs "quote-workers/internal/workers/infrastructure/validate-subscription"
	cqp "quote-workers/internal/workers/quote/calculate-quote-price"
	cfc "quote-workers/internal/workers/quote/check-form-completion"
	rfv "quote-workers/internal/workers/quote/resolve-field-visibility"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog, _ := zap.NewProduction()
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, camunda.ClientConfigFrom(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	startupRetry := &camunda.RetryConfig{MaxRetries: 15, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = camunda.RetryWithBackoff(ctx, startupRetry, log, "PostgreSQL connection", func(ctx context.Context) error {
		var err error
		if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		return nil
	})
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = camunda.RetryWithBackoff(ctx, startupRetry, log, "Redis connection", redis.Ping)
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	forms := formstore.New(pg.DB, redis.Client, cfg.Pricing.FormCacheTTLDuration(), log)
	service := quote.NewService(forms, cfg.Pricing.Currency, obs, log)

	subscriptions := vs.NewHandler(
		&vs.Config{
			Timeout:  config.GetDuration(config.GetWorkerConfig(cfg, vs.TaskType).Timeout),
			CacheTTL: cfg.Pricing.SubscriptionCacheTTLDuration(),
		},
		pg.DB, redis.Client, log,
	)

	// --- Workers ---
	workers := camunda.NewWorkerSet(zeebe.Zeebe(), obs, log)

	workers.Start(vs.TaskType, config.GetWorkerConfig(cfg, vs.TaskType), subscriptions.Handle)

	if wcfg := config.GetWorkerConfig(cfg, rfv.TaskType); wcfg.Enabled {
		handler := rfv.NewHandler(&rfv.Config{Timeout: config.GetDuration(wcfg.Timeout)}, service, log)
		workers.Start(rfv.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, cfc.TaskType); wcfg.Enabled {
		handler := cfc.NewHandler(&cfc.Config{Timeout: config.GetDuration(wcfg.Timeout)}, service, log)
		workers.Start(cfc.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, cqp.TaskType); wcfg.Enabled {
		handler := cqp.NewHandler(
			&cqp.Config{
				Timeout:         config.GetDuration(wcfg.Timeout),
				RequireComplete: true,
			},
			service, log,
		)
		workers.Start(cqp.TaskType, wcfg, handler.Handle)
	}

	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.Running()))

	catalogue := registry.Builtin()
	for _, taskType := range workers.Running() {
		if task, ok := catalogue.Find(taskType); ok {
			zapLog.Debug("Task contract",
				zap.String("taskType", task.TaskType),
				zap.Strings("errorCodes", task.ErrorCodes),
				zap.Int("retries", task.Retries),
			)
		}
	}

	// --- HTTP API, health, metrics ---
	server := api.NewServer(api.Options{
		Config:        cfg.HTTP,
		Service:       service,
		Subscriptions: subscriptions,
		Forms:         forms,
		Probes: map[string]api.Probe{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    redis.Ping,
		},
		Logger: log,
	})

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Run(ctx) }()

	serverRunning := true
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, stopping workers...")
	case err := <-serverErr:
		zapLog.Error("HTTP server failed", zap.Error(err))
		serverRunning = false
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close(shutdownCtx)

	if serverRunning {
		if err := <-serverErr; err != nil {
			zapLog.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
