package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nectar-erp/nectar-erp/internal/app"
	"github.com/nectar-erp/nectar-erp/internal/inventory"
	jobmetrics "github.com/nectar-erp/nectar-erp/internal/jobs"
	"github.com/nectar-erp/nectar-erp/internal/orders"
	"github.com/nectar-erp/nectar-erp/internal/platform/db"
	"github.com/nectar-erp/nectar-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	ordersRepo := orders.NewRepository(pool)
	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, nil, logger)

	var mailer jobs.Mailer = &jobs.LogMailer{Logger: logger}
	if cfg.SMTPHost != "" {
		mailer = jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	}

	processor := jobs.NewProcessor(jobs.ProcessorConfig{
		Mailer:     mailer,
		Stale:      ordersRepo,
		LowStock:   inventoryService,
		OpsAddress: cfg.OpsEmail,
		StaleAfter: cfg.StaleOrderAfter,
		Metrics:    jobmetrics.NewMetrics(nil),
		Logger:     logger,
	})

	now := time.Now().UTC()
	staleTask, err := jobs.NewStaleOrderScanTask(now)
	if err != nil {
		logger.Error("build stale scan task", slog.Any("error", err))
		os.Exit(1)
	}
	lowStockTask, err := jobs.NewLowStockScanTask(now)
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  processor.Handlers(),
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: staleTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: lowStockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
