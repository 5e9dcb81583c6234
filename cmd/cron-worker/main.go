package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/cron"
	"github.com/angelmondragon/ppekeeper-backend/internal/inventory"
	"github.com/angelmondragon/ppekeeper-backend/pkg/config"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db"
	"github.com/angelmondragon/ppekeeper-backend/pkg/instance"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/metrics"
	"github.com/angelmondragon/ppekeeper-backend/pkg/migrate"
	"github.com/angelmondragon/ppekeeper-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run the selected jobs a single time and exit")
	only := flag.String("jobs", "", "comma separated job names to run (default all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.EnsureSchema(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to ensure schema", err)
		os.Exit(1)
	}

	var lock cron.Lock = cron.NewLocalLock()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey("cron"), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
	}

	conn := dbClient.DB()
	auditService, err := audit.NewService(audit.NewRepository(conn), logg)
	exitOnErr(logg, "audit service", err)
	ledger, err := inventory.NewLedger(inventory.NewRepository(conn), dbClient)
	exitOnErr(logg, "stock ledger", err)

	inventoryMetrics := metrics.NewInventoryMetrics(prometheus.DefaultRegisterer)
	reconcileJob, err := cron.NewStockReconcileJob(cron.StockReconcileJobParams{
		Logger:  logg,
		Ledger:  ledger,
		Audit:   auditService,
		Metrics: inventoryMetrics,
	})
	exitOnErr(logg, "stock reconcile job", err)
	lowStockJob, err := cron.NewLowStockJob(cron.LowStockJobParams{
		Logger:  logg,
		Ledger:  ledger,
		Metrics: inventoryMetrics,
	})
	exitOnErr(logg, "low stock job", err)

	registry, err := cron.NewRegistry(reconcileJob, lowStockJob)
	exitOnErr(logg, "job registry", err)
	if *only != "" {
		registry, err = registry.Only(strings.Split(*only, ",")...)
		exitOnErr(logg, "job selection", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	exitOnErr(logg, "cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
		"once":     *once,
		"jobs":     registry.Names(),
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting cron worker")

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func exitOnErr(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+component, err)
	os.Exit(1)
}
