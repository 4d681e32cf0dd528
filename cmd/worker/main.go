package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/velora-salon/velora-salon/internal/app"
	"github.com/velora-salon/velora-salon/internal/billing"
	"github.com/velora-salon/velora-salon/internal/cashbook"
	"github.com/velora-salon/velora-salon/internal/integration"
	jobmetrics "github.com/velora-salon/velora-salon/internal/jobs"
	"github.com/velora-salon/velora-salon/internal/masterdata/customers"
	"github.com/velora-salon/velora-salon/internal/masterdata/services"
	"github.com/velora-salon/velora-salon/internal/packages"
	"github.com/velora-salon/velora-salon/internal/platform/cache"
	"github.com/velora-salon/velora-salon/internal/platform/db"
	"github.com/velora-salon/velora-salon/internal/scheduling/booking"
	"github.com/velora-salon/velora-salon/internal/sessionledger"
	"github.com/velora-salon/velora-salon/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Fail fast when Redis is unreachable instead of letting asynq retry
	// silently.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	runner := db.NewRunner(pool)

	serviceRepo := services.NewRepository(pool)
	customerService := customers.NewService(customers.NewRepository(pool))
	cashbookService := cashbook.NewService(cashbook.NewRepository(pool))
	billingService := billing.NewService(billing.NewRepository(pool), cashbookService, customerService, runner)
	packageRepo := packages.NewRepository(pool)
	ledgerService := sessionledger.NewService(sessionledger.NewRepository(pool), packageRepo)
	hooks := integration.NewCompletionHooks(serviceRepo, ledgerService, billingService, logger)
	bookingRepo := booking.NewRepository(pool)
	bookingService := booking.NewService(bookingRepo, serviceRepo, packageRepo, hooks, nil, nil, runner, logger, cfg.UnitSlotMinutes)

	metrics := jobmetrics.NewMetrics(nil)

	remindJob := jobs.NewAppointmentRemindJob(bookingService, logger, metrics)
	expiryJob := jobs.NewPackageExpiryScanJob(pool, logger, metrics)
	summaryJob := jobs.NewCashbookDaySummaryJob(pool, cashbookService, logger, metrics)

	expiryTask, err := jobs.NewPackageExpiryScanTask(0)
	if err != nil {
		logger.Error("build expiry scan task", slog.Any("error", err))
		os.Exit(1)
	}
	summaryTask, err := jobs.NewCashbookDaySummaryTask("")
	if err != nil {
		logger.Error("build day summary task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAppointmentRemind, Handler: remindJob.Handle},
			{Type: jobs.TaskPackageExpiryScan, Handler: expiryJob.Handle},
			{Type: jobs.TaskCashbookDaySummary, Handler: summaryJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 1 * * *", Task: expiryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 2 * * *", Task: summaryTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
