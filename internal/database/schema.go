package database

import (
	"context"
	"fmt"
	"log/slog"

	"blog/internal/config"
	"blog/internal/middleware"
	"blog/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the schema-managed GORM models in dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Article{},
		&models.Comment{},
	}
}

// SchemaStatus describes what ApplySchema would do for the current config.
type SchemaStatus struct {
	Mode              string
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
}

func schemaMode(cfg *config.Config) string {
	if cfg.SchemaMode == "" {
		return config.SchemaModeAuto
	}
	return cfg.SchemaMode
}

// ApplySchema runs either GORM AutoMigrate or the embedded SQL migrations.
// AutoMigrate is refused in production.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode := schemaMode(cfg)
	switch mode {
	case config.SchemaModeSQL:
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	case config.SchemaModeAuto:
		if cfg.IsProduction() {
			return fmt.Errorf("refusing SCHEMA_MODE=auto in %q", cfg.Env)
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	default:
		return fmt.Errorf("unsupported SCHEMA_MODE %q", mode)
	}
	return nil
}

// GetSchemaStatus lists applied and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	status := &SchemaStatus{
		Mode:        schemaMode(cfg),
		Environment: cfg.Env,
	}

	store := NewMigrationStore(db)
	applied, err := store.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range GetMigrations() {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}

	return status, nil
}
