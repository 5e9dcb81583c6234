package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/ppekeeper-backend/api"
	"github.com/angelmondragon/ppekeeper-backend/api/controllers"
	"github.com/angelmondragon/ppekeeper-backend/api/routes"
	"github.com/angelmondragon/ppekeeper-backend/internal/assignments"
	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/capacity"
	"github.com/angelmondragon/ppekeeper-backend/internal/catalog"
	"github.com/angelmondragon/ppekeeper-backend/internal/employees"
	"github.com/angelmondragon/ppekeeper-backend/internal/inventory"
	"github.com/angelmondragon/ppekeeper-backend/internal/issuance"
	"github.com/angelmondragon/ppekeeper-backend/pkg/config"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db"
	"github.com/angelmondragon/ppekeeper-backend/pkg/instance"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/metrics"
	"github.com/angelmondragon/ppekeeper-backend/pkg/migrate"
	"github.com/angelmondragon/ppekeeper-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	health := map[string]controllers.Pinger{"database": dbClient, "redis": nil}
	var sessions issuance.SessionStore = issuance.NewMemorySessionStore(cfg.Issuance.SessionTTL)
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
		health["redis"] = redisClient
		sessions, err = issuance.NewRedisSessionStore(redisClient, cfg.Issuance.SessionTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create session store", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, issuance sessions kept in memory")
	}

	conn := dbClient.DB()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	auditService, err := audit.NewService(audit.NewRepository(conn), logg)
	exitOnErr(logg, "audit service", err)

	capacityStore, err := capacity.NewStore(capacity.NewRepository(conn), dbClient)
	exitOnErr(logg, "capacity store", err)
	if err := capacityStore.Load(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to load capacity settings, using defaults", err)
	}

	ledger, err := inventory.NewLedger(inventory.NewRepository(conn), dbClient)
	exitOnErr(logg, "stock ledger", err)

	employeeRepo := employees.NewRepository(conn)
	assignmentRepo := assignments.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)

	employeeService, err := employees.NewService(employeeRepo, assignmentRepo, auditService, dbClient)
	exitOnErr(logg, "employee service", err)
	assignmentService, err := assignments.NewService(assignmentRepo, auditService)
	exitOnErr(logg, "assignment service", err)
	catalogService, err := catalog.NewService(catalogRepo, ledger, auditService, dbClient)
	exitOnErr(logg, "catalog service", err)

	engine, err := issuance.NewEngine(issuance.EngineParams{
		Logger:      logg,
		DB:          dbClient,
		Employees:   employeeRepo,
		Assignments: assignmentRepo,
		Catalog:     catalogRepo,
		Capacity:    capacityStore,
		Ledger:      ledger,
		Audit:       auditService,
		Sessions:    sessions,
		Metrics:     metrics.NewIssuanceMetrics(registry),
	})
	exitOnErr(logg, "issuance engine", err)

	handler := routes.NewRouter(routes.RouterParams{
		Config:      cfg,
		Logger:      logg,
		Health:      health,
		Gatherer:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Issuance:    engine,
		Employees:   employeeService,
		Assignments: assignmentService,
		Catalog:     catalogService,
		Capacity:    capacityStore,
		Audit:       auditService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"db":       cfg.DB.Driver,
		"redis":    cfg.Redis.Enabled(),
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	if err := api.Serve(ctx, cfg, logg, api.NewServer(addr, handler)); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func exitOnErr(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+component, err)
	os.Exit(1)
}
