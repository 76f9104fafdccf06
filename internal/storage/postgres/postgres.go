// Package postgres registers the "postgres" backend on a pgx connection pool.
//
// Each batch runs inside a pgx.Tx. Row inserts are queued on a pgx.Batch and
// sent in one round trip at Commit, so a 10000-row batch costs one network
// exchange instead of 10000.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"csvtosql/internal/schema"
	"csvtosql/internal/storage"
)

var Dialect = schema.Standard{
	Label:        "postgres",
	Types:        [3]string{"BIGINT", "DOUBLE PRECISION", "TEXT"},
	Placeholders: schema.DollarNumber,
}

func init() {
	storage.Register("postgres", Dialect, Open)
}

// pgPool is the subset of *pgxpool.Pool the repository needs.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool pgPool
}

// Open creates a pool for cfg.DSN and checks connectivity.
func Open(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Exec(ctx context.Context, stmt string) error {
	_, err := r.pool.Exec(ctx, stmt)
	return err
}

func (r *Repo) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

func (r *Repo) Close() { r.pool.Close() }

// txConn is the part of pgx.Tx a batch touches.
type txConn interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type tx struct {
	conn  txConn
	batch *pgx.Batch
}

func newTx(c txConn) *tx { return &tx{conn: c, batch: &pgx.Batch{}} }

// Insert queues the row. Args are copied because callers reuse the slice.
func (t *tx) Insert(_ context.Context, stmt string, args []any) error {
	t.batch.Queue(stmt, append([]any(nil), args...)...)
	return nil
}

// Commit flushes queued inserts, then commits. A failing row reports its
// 1-based position within the batch.
func (t *tx) Commit(ctx context.Context) error {
	if n := t.batch.Len(); n > 0 {
		br := t.conn.SendBatch(ctx, t.batch)
		for i := 0; i < n; i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("batch row %d: %w", i+1, err)
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
		t.batch = &pgx.Batch{}
	}
	return t.conn.Commit(ctx)
}

func (t *tx) Rollback(ctx context.Context) error {
	if err := t.conn.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

var (
	_ storage.Repository = (*Repo)(nil)
	_ storage.Tx         = (*tx)(nil)
	_ pgPool             = (*pgxpool.Pool)(nil)
)
