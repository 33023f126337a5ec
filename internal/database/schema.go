package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"taskflow/pkg/logger"
)

// Column types differ per engine; everything else is shared so cascades
// behave the same in production and in tests.
type dialect struct {
	timestamp string
	json      string
}

var dialects = map[string]dialect{
	DriverPostgres: {timestamp: "TIMESTAMPTZ", json: "JSONB"},
	DriverSQLite:   {timestamp: "TIMESTAMP", json: "TEXT"},
}

func schemaStatements(d dialect) []string {
	ts, js := d.timestamp, d.json
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT,
			name TEXT,
			avatar_url TEXT,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		// Invites look addresses up ignoring case, so uniqueness does too.
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email))`,
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS boards_owner_idx ON boards (owner_id)`,
		`CREATE TABLE IF NOT EXISTS board_members (
			board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role TEXT NOT NULL DEFAULT 'member',
			joined_at ` + ts + ` NOT NULL,
			PRIMARY KEY (board_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS board_members_user_idx ON board_members (user_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS board_members_one_owner_idx ON board_members (board_id) WHERE role = 'owner'`,
		`CREATE TABLE IF NOT EXISTS lists (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			position INTEGER NOT NULL,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS lists_position_idx ON lists (board_id, position)`,
		`CREATE TABLE IF NOT EXISTS labels (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS labels_board_idx ON labels (board_id)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			list_id TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT,
			position INTEGER NOT NULL,
			priority TEXT NOT NULL DEFAULT 'no-priority',
			due_date ` + ts + `,
			progress_completed INTEGER NOT NULL DEFAULT 0,
			progress_total INTEGER NOT NULL DEFAULT 0,
			comments_count INTEGER NOT NULL DEFAULT 0,
			attachments_count INTEGER NOT NULL DEFAULT 0,
			links_count INTEGER NOT NULL DEFAULT 0,
			created_by TEXT REFERENCES users(id) ON DELETE SET NULL,
			created_at ` + ts + ` NOT NULL,
			updated_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS tasks_position_idx ON tasks (list_id, position)`,
		`CREATE TABLE IF NOT EXISTS task_assignees (
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			assigned_at ` + ts + ` NOT NULL,
			PRIMARY KEY (task_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS task_assignees_user_idx ON task_assignees (user_id)`,
		`CREATE TABLE IF NOT EXISTS task_labels (
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			label_id TEXT NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
			PRIMARY KEY (task_id, label_id)
		)`,
		`CREATE TABLE IF NOT EXISTS activity_log (
			id TEXT PRIMARY KEY,
			board_id TEXT REFERENCES boards(id) ON DELETE CASCADE,
			user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
			action_type TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT,
			metadata ` + js + `,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS activity_log_board_created_idx ON activity_log (board_id, created_at)`,
	}
}

// MigrateOrCreateSchema creates every table and index that does not exist yet.
func MigrateOrCreateSchema(ctx context.Context, db *sqlx.DB) error {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return fmt.Errorf("unsupported driver %q", db.DriverName())
	}
	for _, stmt := range schemaStatements(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	logger.Info(ctx, "Schema ensured", "driver", db.DriverName())
	return nil
}
