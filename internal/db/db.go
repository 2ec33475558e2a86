// Package db is the Postgres access layer shared by the venue and booking
// stores and the migrator.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/bookinghub/internal/internaltypes"
)

const (
	maxConnLifetime = 5 * time.Minute
	maxConnIdleTime = time.Minute
	pingTimeout     = 3 * time.Second
)

// Querier runs statements on the pool or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) error
	ExecCount(ctx context.Context, sql string, args ...any) (int64, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// pgxQuerier is the subset of pgxpool.Pool and pgx.Tx the stores use.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type conn struct{ q pgxQuerier }

func (c conn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.q.Exec(ctx, sql, args...)
	return err
}

// ExecCount returns the number of rows the statement touched.
func (c conn) ExecCount(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := c.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c conn) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return c.q.QueryRow(ctx, sql, args...)
}

func (c conn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return c.q.Query(ctx, sql, args...)
}

// DB owns the connection pool. Its Querier methods run outside any transaction.
type DB struct {
	conn
	pool *pgxpool.Pool
}

func Open(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{conn: conn{q: pool}, pool: pool}, nil
}

func (d *DB) Close() { d.pool.Close() }

// Ping backs /healthz and the server's startup check.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.pool.Ping(ctx)
}

// InTx runs fn in one transaction, committed when fn returns nil.
func (d *DB) InTx(ctx context.Context, fn func(q Querier) error) error {
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		return fn(conn{q: tx})
	})
}

const uniqueViolation = "23505"

// Classify maps driver errors onto the error classes the ledger and registry
// understand: no rows is ErrNotFound, a unique violation is ErrConflict.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return internaltypes.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("db: %s: %w", pgErr.ConstraintName, internaltypes.ErrConflict)
	}
	return fmt.Errorf("db: %w", err)
}
