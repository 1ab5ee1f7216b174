package migrate

import (
	"context"
	"fmt"

	"github.com/avelichko/vitrina-storefront/pkg/config"
	"github.com/avelichko/vitrina-storefront/pkg/db"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
)

// MaybeRunDev applies catalog migrations automatically when the app runs in
// dev mode and the feature flag is enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.Catalog.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.NormalizedDriver()})
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Up(ctx, sqlDB, cfg.DB.NormalizedDriver()); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
