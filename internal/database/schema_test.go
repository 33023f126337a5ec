package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/database"
	"taskflow/internal/testinfra"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := testinfra.OpenSQLite(t)
	require.NoError(t, database.MigrateOrCreateSchema(context.Background(), db))
}

func TestForeignKeysAreEnforced(t *testing.T) {
	db := testinfra.OpenSQLite(t)
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO boards (id, title, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		"b1", "Orphan", "nobody", now, now)
	assert.Error(t, err, "owner must reference an existing user")
}

func TestSingleOwnerMembershipPerBoard(t *testing.T) {
	db := testinfra.OpenSQLite(t)
	testinfra.InsertUser(t, db, "u1", "u1@example.com", "One")
	testinfra.InsertUser(t, db, "u2", "u2@example.com", "Two")
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO boards (id, title, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		"b1", "Sprint", "u1", now, now)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO board_members (board_id, user_id, role, joined_at) VALUES ($1, $2, 'owner', $3)`, "b1", "u1", now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO board_members (board_id, user_id, role, joined_at) VALUES ($1, $2, 'owner', $3)`, "b1", "u2", now)
	assert.Error(t, err)
}

func TestUserEmailIsUniqueIgnoringCase(t *testing.T) {
	db := testinfra.OpenSQLite(t)
	testinfra.InsertUser(t, db, "u1", "ada@example.com", "Ada")
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO users (id, email, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		"u2", "ADA@Example.com", now, now)
	assert.Error(t, err)

	for _, id := range []string{"u3", "u4"} {
		_, err = db.Exec(`INSERT INTO users (id, email, created_at, updated_at) VALUES ($1, NULL, $2, $3)`, id, now, now)
		require.NoError(t, err, "users without an email do not collide")
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:x.db?_foreign_keys=on&_busy_timeout=5000", database.SQLiteDSN("file:x.db"))
	assert.Equal(t, "file:x.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000", database.SQLiteDSN("file:x.db?mode=rwc"))
	assert.Equal(t, "x.db?_fk=1&_busy_timeout=1", database.SQLiteDSN("x.db?_fk=1&_busy_timeout=1"))
}
