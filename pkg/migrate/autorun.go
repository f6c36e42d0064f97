package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
)

// AutoRun brings the schema up to date at process start. It only acts in dev
// with RUGSTORE_AUTO_MIGRATE set; other environments run cmd/migrate.
func AutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || client == nil {
		return fmt.Errorf("auto-migrate: config and db client are required")
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	started := time.Now()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.DB.IsSQLite() {
		if err := ApplySQLiteSchema(ctx, client.DB()); err != nil {
			return err
		}
	} else {
		sqlDB, err := client.DB().DB()
		if err != nil {
			return fmt.Errorf("auto-migrate: unwrap sql.DB: %w", err)
		}
		if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
			return fmt.Errorf("auto-migrate: goose up: %w", err)
		}
	}

	logg.Info(logg.WithField(ctx, "duration_ms", time.Since(started).Milliseconds()), "migrate.autorun.complete")
	return nil
}
