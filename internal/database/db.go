package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"taskflow/internal/config"
	"taskflow/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	dsn := cfg.DatabaseURL
	if cfg.DatabaseDriver == DriverSQLite {
		dsn = SQLiteDSN(dsn)
	}
	db, err := sqlx.Open(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DatabaseDriver, err)
	}
	db.SetMaxOpenConns(cfg.DBPoolSize)
	db.SetMaxIdleConns(cfg.DBPoolSize / 2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.DatabaseDriver, err)
	}
	logger.Info(ctx, "Database pool initialized", "driver", cfg.DatabaseDriver, "max_open", cfg.DBPoolSize)
	return db, nil
}

// SQLiteDSN turns on foreign keys (cascades depend on them) and a busy
// timeout unless the DSN already sets them.
func SQLiteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk=") {
		params = append(params, "_foreign_keys=on")
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		params = append(params, "_busy_timeout=5000")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
