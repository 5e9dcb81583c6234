package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/pkg/config"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/logger"
)

// EnsureSchema runs at process start when PPEKEEPER_AUTO_MIGRATE is set.
// sqlite is always brought up from the models; postgres runs goose up, and
// only in the dev environment.
func EnsureSchema(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.DB.UsesSQLite() {
		logg.Info(logg.WithField(ctx, "path", cfg.DB.SQLitePath), "migrate.sqlite_models")
		return SyncModels(ctx, client.DB())
	}
	if !cfg.App.IsDev() {
		logg.Debug(ctx, "migrate.skipped_outside_dev")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	ctx = logg.WithField(ctx, "dir", DefaultDir)
	logg.Info(ctx, "migrate.goose_up")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.goose_done")
	return nil
}

// SyncModels creates or alters tables from the gorm models. The SQL files
// are postgres-only, so sqlite databases use this path.
func SyncModels(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate models: %w", err)
	}
	return nil
}
