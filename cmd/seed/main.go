package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/ppekeeper-backend/internal/assignments"
	"github.com/angelmondragon/ppekeeper-backend/internal/audit"
	"github.com/angelmondragon/ppekeeper-backend/internal/capacity"
	"github.com/angelmondragon/ppekeeper-backend/internal/catalog"
	"github.com/angelmondragon/ppekeeper-backend/internal/employees"
	"github.com/angelmondragon/ppekeeper-backend/internal/inventory"
	"github.com/angelmondragon/ppekeeper-backend/internal/seed"
	"github.com/angelmondragon/ppekeeper-backend/pkg/config"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
	"github.com/angelmondragon/ppekeeper-backend/pkg/migrate"
)

func main() {
	file := flag.String("file", "configs/seed.example.yaml", "seed document to apply")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "file": *file})

	doc, err := seed.ParseFile(*file)
	if err != nil {
		logg.Error(ctx, "failed to parse seed file", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.EnsureSchema(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to ensure schema", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	auditService, err := audit.NewService(audit.NewRepository(conn), logg)
	exitOnErr(ctx, logg, "audit service", err)
	store, err := capacity.NewStore(capacity.NewRepository(conn), dbClient)
	exitOnErr(ctx, logg, "capacity store", err)
	exitOnErr(ctx, logg, "capacity settings", store.Load(ctx))
	ledger, err := inventory.NewLedger(inventory.NewRepository(conn), dbClient)
	exitOnErr(ctx, logg, "stock ledger", err)
	catalogService, err := catalog.NewService(catalog.NewRepository(conn), ledger, auditService, dbClient)
	exitOnErr(ctx, logg, "catalog service", err)
	employeeService, err := employees.NewService(employees.NewRepository(conn), assignments.NewRepository(conn), auditService, dbClient)
	exitOnErr(ctx, logg, "employee service", err)

	loader, err := seed.NewLoader(seed.LoaderParams{
		Logger:    logg,
		Catalog:   catalogService,
		Capacity:  store,
		Employees: employeeService,
		Audit:     auditService,
	})
	exitOnErr(ctx, logg, "seed loader", err)

	summary, err := loader.Apply(ctx, doc)
	ctx = logg.WithFields(ctx, map[string]any{
		"capacity":     summary.Capacity,
		"categories":   summary.Categories,
		"master_items": summary.MasterItems,
		"employees":    summary.Employees,
	})
	if err != nil {
		logg.Error(ctx, "seed applied with errors", err)
		os.Exit(1)
	}
	logg.Info(ctx, "seed applied")
}

func exitOnErr(ctx context.Context, logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to prepare "+component, err)
	os.Exit(1)
}
