package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/godraft/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrations.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestMigrator_MigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	m := NewMigrator(db)

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Migrate(ctx))

	assert.True(t, db.Migrator().HasTable(&models.File{}))
	assert.True(t, db.Migrator().HasIndex(&models.File{}, "idx_files_content_hash"))
	assert.True(t, db.Migrator().HasIndex(&models.File{}, "idx_files_coordinates"))

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Applied)
}

func TestMigrator_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	m := NewMigrator(db)

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Rollback(ctx))

	assert.False(t, db.Migrator().HasTable(&models.File{}))

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, statuses[0].Applied)

	assert.Error(t, m.Rollback(ctx))
}
