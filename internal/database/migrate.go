package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/knoweat/backend/internal/store"
)

// RunMigrations brings the schema up to date for the device, profile and menu tables.
// Postgres additionally gets a GIN index on the dish column for tag lookups.
func RunMigrations(db *gorm.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("running auto-migration", zap.String("dialect", db.Dialector.Name()))
	if err := store.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_menus_dishes ON menus USING GIN (dishes jsonb_path_ops)`).Error; err != nil {
			return fmt.Errorf("failed to create dish index: %w", err)
		}
		if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_menus_device_scanned ON menus (device_id, scanned_at DESC)`).Error; err != nil {
			return fmt.Errorf("failed to create history index: %w", err)
		}
	}

	logger.Info("migrations applied")
	return nil
}
