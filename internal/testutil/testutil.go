// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/config"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Config returns a configuration backed by an in-memory sqlite database
// with a cheap bcrypt cost.
func Config() *config.Config {
	return &config.Config{
		AppName:          "FlaskApp",
		AppEnv:           "test",
		LogLevel:         "error",
		DBDriver:         "sqlite",
		SQLitePath:       ":memory:",
		SecretKey:        "test-secret-key",
		PasswordSalt:     "MY_SALT",
		BcryptCost:       4,
		SessionTTL:       time.Hour,
		AdminRole:        "admin",
		Port:             "0",
		CORSOrigins:      "*",
		LogRetentionDays: 30,
	}
}

// NewDB opens and migrates a fresh in-memory database that is closed when
// the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(Config())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
