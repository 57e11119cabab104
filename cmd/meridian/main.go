package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-grc/meridian-grc/internal/app"
	"github.com/meridian-grc/meridian-grc/internal/hodledger"
	"github.com/meridian-grc/meridian-grc/internal/inspection"
	"github.com/meridian-grc/meridian-grc/internal/ledger"
	"github.com/meridian-grc/meridian-grc/internal/observability"
	"github.com/meridian-grc/meridian-grc/internal/platform/db"
	"github.com/meridian-grc/meridian-grc/internal/position"
	"github.com/meridian-grc/meridian-grc/internal/responsibility"
	"github.com/meridian-grc/meridian-grc/internal/shared"
	"github.com/meridian-grc/meridian-grc/jobs"
)

// meteredAuditor counts each recorded transition before persisting it. It
// satisfies the ledger and hodledger Auditor interfaces.
type meteredAuditor struct {
	recorder *shared.TransitionRecorder
	metrics  *observability.Metrics
}

func (a meteredAuditor) Record(ctx context.Context, entry shared.TransitionLog) error {
	a.metrics.ObserveTransition(entry.Module, entry.ToStatus)
	return a.recorder.Record(ctx, entry)
}

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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	notifier, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditor := meteredAuditor{
		recorder: shared.NewTransitionRecorder(pool, logger),
		metrics:  metrics,
	}
	statusCache := ledger.NewStatusCache(redisClient, cfg.StatusTTL)

	ledgerService := ledger.NewService(ledger.NewPGRepository(pool), statusCache, auditor, notifier, logger)
	inspectionService := inspection.NewService(inspection.NewPGRepository(pool), logger)
	hodService := hodledger.NewService(hodledger.NewPGRepository(pool), inspectionService, auditor, notifier, logger)
	responsibilityService := responsibility.NewService(responsibility.NewPGRepository(pool), logger)
	positionService := position.NewService(position.NewPGRepository(pool), logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("asynq inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:                logger,
		Config:                cfg,
		LedgerHandler:         ledger.NewHandler(logger, ledgerService),
		HodLedgerHandler:      hodledger.NewHandler(logger, hodService),
		ResponsibilityHandler: responsibility.NewHandler(logger, responsibilityService),
		PositionHandler:       position.NewHandler(logger, positionService),
		InspectionHandler:     inspection.NewHandler(logger, inspectionService),
		JobHandler:            jobs.NewHandler(inspector, logger),
		Pool:                  pool,
		Metrics:               metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("shutdown complete")
}
