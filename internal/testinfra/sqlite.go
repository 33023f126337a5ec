// Package testinfra provides fixtures shared by package tests.
package testinfra

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"taskflow/internal/database"
)

// OpenSQLite returns a migrated, file-backed SQLite database that is removed
// when the test ends.
func OpenSQLite(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "taskflow.db")
	db, err := sqlx.Open(database.DriverSQLite, database.SQLiteDSN(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.MigrateOrCreateSchema(context.Background(), db))
	return db
}

// InsertUser writes a user row directly.
func InsertUser(t testing.TB, db *sqlx.DB, id, email, name string) {
	t.Helper()
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO users (id, email, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, email, name, now, now)
	require.NoError(t, err)
}

// CountRows returns the number of rows in table matching where (may be empty).
func CountRows(t testing.TB, db *sqlx.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	require.NoError(t, db.Get(&n, q, args...))
	return n
}
