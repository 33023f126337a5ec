package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"taskflow/internal/apperr"
	"taskflow/pkg/logger"
)

// Store is the SQL-backed persistence layer. A Store returned by WithTx runs
// every call inside that transaction.
type Store struct {
	db   sqlx.ExtContext
	root *sqlx.DB
	sb   sq.StatementBuilderType
}

// New wraps an open database.
func New(db *sqlx.DB) *Store {
	return &Store{
		db:   db,
		root: db,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// WithTx runs fn in a transaction, committing when fn returns nil. Nested
// calls reuse the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.root == nil {
		return fn(s)
	}
	tx, err := s.root.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{db: tx, sb: s.sb}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error(ctx, "Repository rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(err, "")
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.root == nil {
		return nil
	}
	return s.root.PingContext(ctx)
}

func (s *Store) get(ctx context.Context, dest any, b sq.Sqlizer, notFound string) error {
	q, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return mapErr(sqlx.GetContext(ctx, s.db, dest, q, args...), notFound)
}

func (s *Store) selectInto(ctx context.Context, dest any, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return mapErr(sqlx.SelectContext(ctx, s.db, dest, q, args...), "")
}

func (s *Store) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, mapErr(err, "")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// execOne is exec that reports NotFound when no row was touched.
func (s *Store) execOne(ctx context.Context, b sq.Sqlizer, notFound string) error {
	n, err := s.exec(ctx, b)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}

// mapErr classifies driver errors into the apperr taxonomy.
func mapErr(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		if notFound == "" {
			notFound = "Not found"
		}
		return apperr.Wrap(apperr.KindNotFound, notFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return apperr.Wrap(apperr.KindConflict, "Already exists", err)
		case "23503":
			return apperr.Wrap(apperr.KindNotFound, "Referenced resource not found", err)
		}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return apperr.Wrap(apperr.KindConflict, "Already exists", err)
		case sqlite3.ErrConstraintForeignKey:
			return apperr.Wrap(apperr.KindNotFound, "Referenced resource not found", err)
		}
	}
	return err
}
