package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nectar-erp/nectar-erp/cmd/nectar/cli"
	"github.com/nectar-erp/nectar-erp/internal/app"
	"github.com/nectar-erp/nectar-erp/internal/audit"
	"github.com/nectar-erp/nectar-erp/internal/distributor"
	"github.com/nectar-erp/nectar-erp/internal/documents"
	"github.com/nectar-erp/nectar-erp/internal/inventory"
	"github.com/nectar-erp/nectar-erp/internal/ledger"
	"github.com/nectar-erp/nectar-erp/internal/logistics"
	"github.com/nectar-erp/nectar-erp/internal/observability"
	"github.com/nectar-erp/nectar-erp/internal/orders"
	"github.com/nectar-erp/nectar-erp/internal/platform/cache"
	"github.com/nectar-erp/nectar-erp/internal/platform/db"
	"github.com/nectar-erp/nectar-erp/internal/shared"
	"github.com/nectar-erp/nectar-erp/jobs"
	"github.com/nectar-erp/nectar-erp/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCommand(ctx, cfg, logger, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, stats cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	transitionRecorder := shared.NewTransitionRecorder(pool, logger)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	if err := idempotencyStore.Cleanup(ctx, 24*time.Hour); err != nil {
		logger.Warn("idempotency cleanup", slog.Any("error", err))
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewNotifier(jobClient, logger)

	ordersRepo := orders.NewRepository(pool)
	statsCache := orders.NewStatsCache(ordersRepo, redisClient, cfg.StatsTTL, logger)
	ordersService := orders.NewService(ordersRepo, transitionRecorder, notifier, statsCache, logger)
	ordersHandler := orders.NewHandler(logger, ordersService, idempotencyStore)

	documentsRenderer, err := documents.NewRenderer()
	if err != nil {
		logger.Error("init document renderer", slog.Any("error", err))
		os.Exit(1)
	}
	documentsRepo := documents.NewRepository(pool)
	documentsService := documents.NewService(documentsRepo, ordersService, documentsRenderer, logger)
	var pdfRenderer documents.PDFRenderer
	if cfg.GotenbergURL != "" {
		gotenberg := report.NewClient(cfg.GotenbergURL)
		if err := gotenberg.Ping(ctx); err != nil {
			logger.Warn("gotenberg unreachable, pdf downloads may fail", slog.Any("error", err))
		}
		pdfRenderer = gotenberg
	}
	documentsHandler := documents.NewHandler(logger, documentsService, pdfRenderer)

	logisticsRepo := logistics.NewRepository(pool)
	logisticsService := logistics.NewService(logisticsRepo, ordersService, transitionRecorder, logger)
	logisticsHandler := logistics.NewHandler(logger, logisticsService)

	distributorRepo := distributor.NewRepository(pool)
	distributorService := distributor.NewService(distributorRepo, auditLogger, logger)
	distributorHandler := distributor.NewHandler(logger, distributorService)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger, logger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	auditService := audit.NewService(audit.NewRepository(pool), logger)
	auditHandler := audit.NewHandler(logger, auditService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		OrdersHandler:      ordersHandler,
		DocumentsHandler:   documentsHandler,
		LogisticsHandler:   logisticsHandler,
		DistributorHandler: distributorHandler,
		LedgerHandler:      ledgerHandler,
		InventoryHandler:   inventoryHandler,
		AuditHandler:       auditHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// runJobsCommand handles the "jobs" subcommand for operators: triggering
// scans ahead of schedule and inspecting the queue.
func runJobsCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: nectar jobs <trigger|inspect|scheduled> [task]")
	}

	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("close jobs cli", slog.Any("error", err))
		}
	}()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("usage: nectar jobs trigger <task>")
		}
		info, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		logger.Info("task enqueued", slog.String("task", info.Type), slog.String("id", info.ID))
		return nil
	case "inspect":
		info, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		logger.Info("queue stats",
			slog.String("queue", info.Queue),
			slog.Int("pending", info.Pending),
			slog.Int("active", info.Active),
			slog.Int("scheduled", info.Scheduled),
			slog.Int("retry", info.Retry))
		return nil
	case "scheduled":
		tasks, err := jobsCLI.ListScheduled(ctx, 20)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			logger.Info("scheduled task",
				slog.String("task", task.Type),
				slog.String("id", task.ID),
				slog.Time("next_process_at", task.NextProcessAt))
		}
		return nil
	default:
		return fmt.Errorf("unknown jobs command %s", args[0])
	}
}
