package database

import (
	"context"
	"testing"

	"blog/internal/config"
	"blog/internal/middleware"
	"blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: NewGormLogger(middleware.Logger)})
	require.NoError(t, err)
	return db
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "5433", DBUser: "blog", DBPassword: "secret", DBName: "blog"}
	assert.Equal(t, "host=db port=5433 user=blog password=secret dbname=blog sslmode=disable", DSN(cfg))

	cfg.DBSSLMode = "require"
	assert.Contains(t, DSN(cfg), "sslmode=require")
}

func TestMigrationsRegistered(t *testing.T) {
	all := GetMigrations()
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "init_schema", all[0].Name)
	assert.Contains(t, all[0].UpScript, "CREATE TABLE IF NOT EXISTS articles")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS comments")
	assert.Equal(t, "000002_lower_lookup_indexes", all[1].String())

	assert.NotNil(t, GetMigrationByVersion(2))
	assert.Nil(t, GetMigrationByVersion(99))
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestApplySchema_AutoMigrate(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{Env: "test", SchemaMode: config.SchemaModeAuto}

	require.NoError(t, ApplySchema(context.Background(), db, cfg))

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasColumn(&models.Article{}, "media_urls"))
	assert.True(t, db.Migrator().HasColumn(&models.Comment{}, "date_edited"))
}

func TestApplySchema_RefusesAutoInProduction(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{Env: "production", SchemaMode: config.SchemaModeAuto}

	err := ApplySchema(context.Background(), db, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing")
}

func TestGetSchemaStatus_NoLogTable(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{Env: "test", SchemaMode: config.SchemaModeSQL}

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.Empty(t, status.AppliedVersions)
	assert.Len(t, status.PendingMigrations, 2)
	assert.Equal(t, config.SchemaModeSQL, status.Mode)
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	base := NewGormLogger(middleware.Logger)
	silent := base.LogMode(logger.Silent).(*GormLogger)

	assert.Equal(t, logger.Silent, silent.Config.LogLevel)
	assert.Equal(t, logger.Warn, base.Config.LogLevel)
}
