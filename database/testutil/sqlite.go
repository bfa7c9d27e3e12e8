// Package testutil opens throwaway SQLite databases for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/kbukum/authkit/database"
	"github.com/kbukum/authkit/logger"
)

// NewSQLite opens a private in-memory database, migrates models and closes
// it when the test ends. The pool is pinned to one connection because every
// new SQLite memory connection starts empty.
func NewSQLite(tb testing.TB, models ...interface{}) *database.DB {
	tb.Helper()

	cfg := database.Config{
		Driver:       database.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		MaxRetries:   1,
		LogLevel:     "silent",
	}
	db, err := database.New(context.Background(), cfg, logger.NewNop())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			tb.Fatalf("migrate: %v", err)
		}
	}
	return db
}
