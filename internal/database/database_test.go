package database

import (
	"path/filepath"
	"testing"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/config"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateSQLiteFile(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "blog.db")}

	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	require.NoError(t, PingDB(db))

	for _, table := range []string{"items", "addresses", "users", "roles", "roles_users", "system_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	// Migrating twice is a no-op.
	require.NoError(t, Migrate(db))
}

func TestForeignKeysEnforced(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db))

	missing := uint(42)
	err = db.Create(&models.Address{Street: "Main St", ItemID: &missing}).Error
	assert.Error(t, err)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "mysql"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestPingWithoutConnection(t *testing.T) {
	assert.Error(t, PingDB(nil))
}
