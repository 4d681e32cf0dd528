package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/velora-salon/velora-salon/internal/app"
	"github.com/velora-salon/velora-salon/internal/auth"
	"github.com/velora-salon/velora-salon/internal/billing"
	"github.com/velora-salon/velora-salon/internal/cashbook"
	"github.com/velora-salon/velora-salon/internal/integration"
	"github.com/velora-salon/velora-salon/internal/masterdata/branches"
	"github.com/velora-salon/velora-salon/internal/masterdata/customers"
	"github.com/velora-salon/velora-salon/internal/masterdata/services"
	"github.com/velora-salon/velora-salon/internal/masterdata/staff"
	"github.com/velora-salon/velora-salon/internal/observability"
	"github.com/velora-salon/velora-salon/internal/packages"
	"github.com/velora-salon/velora-salon/internal/platform/cache"
	"github.com/velora-salon/velora-salon/internal/platform/db"
	"github.com/velora-salon/velora-salon/internal/scheduling/availability"
	"github.com/velora-salon/velora-salon/internal/scheduling/booking"
	"github.com/velora-salon/velora-salon/internal/sessionledger"
	"github.com/velora-salon/velora-salon/jobs"
	"github.com/velora-salon/velora-salon/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	runner := db.NewRunner(dbpool)

	branchRepo := branches.NewRepository(dbpool)
	branchService := branches.NewService(branchRepo)
	branchHandler := branches.NewHandler(logger, branchService)

	serviceRepo := services.NewRepository(dbpool)
	catalog := services.NewCatalog(serviceRepo)
	serviceHandler := services.NewHandler(logger, catalog)

	staffRepo := staff.NewRepository(dbpool)
	staffService := staff.NewService(staffRepo)
	staffHandler := staff.NewHandler(logger, staffService)

	customerRepo := customers.NewRepository(dbpool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService)

	cashbookRepo := cashbook.NewRepository(dbpool)
	cashbookService := cashbook.NewService(cashbookRepo)
	cashbookHandler := cashbook.NewHandler(logger, cashbookService)

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, cashbookService, customerService, runner)
	var invoicePDF billing.InvoicePDF
	if cfg.GotenbergURL != "" {
		invoicePDF = report.NewRenderer(report.NewClient(cfg.GotenbergURL))
	}
	billingHandler := billing.NewHandler(logger, billingService, invoicePDF)

	packageRepo := packages.NewRepository(dbpool)
	packageService := packages.NewService(packageRepo, billingService, runner)
	packageHandler := packages.NewHandler(logger, packageService)

	ledgerRepo := sessionledger.NewRepository(dbpool)
	ledgerService := sessionledger.NewService(ledgerRepo, packageRepo)
	ledgerHandler := sessionledger.NewHandler(ledgerService)

	bookingRepo := booking.NewRepository(dbpool)

	calculator := availability.NewCalculator(serviceRepo, branchRepo, bookingRepo, availability.Config{
		GridMinutes:     cfg.SlotGridMinutes,
		UnitSlotMinutes: cfg.UnitSlotMinutes,
	})
	slotCache := availability.NewSlotCache(calculator, redisClient, cfg.SlotCacheTTL, logger)
	availabilityHandler := availability.NewHandler(logger, slotCache)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	reminders := &jobs.ReminderScheduler{Client: jobsClient, Lead: cfg.ReminderLead}

	hooks := integration.NewCompletionHooks(serviceRepo, ledgerService, billingService, logger)
	bookingService := booking.NewService(bookingRepo, serviceRepo, packageRepo, hooks, reminders, slotCache, runner, logger, cfg.UnitSlotMinutes)
	bookingHandler := booking.NewHandler(logger, bookingService)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, staffService, redisClient, cfg.SessionTTL)
	authHandler := auth.NewHandler(logger, authService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthService:         authService,
		AuthHandler:         authHandler,
		BranchHandler:       branchHandler,
		ServiceHandler:      serviceHandler,
		StaffHandler:        staffHandler,
		CustomerHandler:     customerHandler,
		PackageHandler:      packageHandler,
		AvailabilityHandler: availabilityHandler,
		BookingHandler:      bookingHandler,
		LedgerHandler:       ledgerHandler,
		BillingHandler:      billingHandler,
		CashbookHandler:     cashbookHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
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
