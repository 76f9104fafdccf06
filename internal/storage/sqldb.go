package storage

import (
	"context"
	"database/sql"
	"errors"
)

// SQLRepository implements Repository on top of database/sql. The sqlite,
// mssql, duckdb and libsql backends share it and differ only in driver and
// dialect.
type SQLRepository struct {
	db dbConn
}

// NewSQLRepository wraps an open *sql.DB. The repository owns it from then on.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: &sqlDB{db: db}}
}

// OpenSQL opens driver/dsn, verifies connectivity and wraps the handle.
// maxConns <= 0 leaves the pool unbounded.
func OpenSQL(ctx context.Context, driver, dsn string, maxConns int) (*SQLRepository, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLRepository(db), nil
}

func (r *SQLRepository) Exec(ctx context.Context, stmt string) error {
	_, err := r.db.ExecContext(ctx, stmt)
	return err
}

func (r *SQLRepository) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlRepoTx{tx: tx}, nil
}

func (r *SQLRepository) Close() {
	if r == nil || r.db == nil {
		return
	}
	_ = r.db.Close()
}

// sqlRepoTx prepares each distinct statement once per transaction. A batch
// runs the same INSERT template for every row.
type sqlRepoTx struct {
	tx    txConn
	stmts map[string]stmtConn
}

func (t *sqlRepoTx) Insert(ctx context.Context, stmt string, args []any) error {
	st, ok := t.stmts[stmt]
	if !ok {
		var err error
		st, err = t.tx.PrepareContext(ctx, stmt)
		if err != nil {
			return err
		}
		if t.stmts == nil {
			t.stmts = make(map[string]stmtConn, 1)
		}
		t.stmts[stmt] = st
	}
	_, err := st.ExecContext(ctx, args...)
	return err
}

func (t *sqlRepoTx) Commit(context.Context) error { return t.tx.Commit() }

func (t *sqlRepoTx) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// ---- database/sql seam types ----

// dbConn is the subset of *sql.DB this package needs; tests substitute fakes.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (txConn, error)
	Close() error
}

// txConn is the subset of *sql.Tx used by a batch.
type txConn interface {
	PrepareContext(ctx context.Context, query string) (stmtConn, error)
	Commit() error
	Rollback() error
}

// stmtConn is a narrow adapter over *sql.Stmt.
type stmtConn interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
}

type sqlDB struct {
	db *sql.DB
}

func (s *sqlDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqlDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (txConn, error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (s *sqlDB) Close() error { return s.db.Close() }

type sqlTx struct {
	tx *sql.Tx
}

func (s *sqlTx) PrepareContext(ctx context.Context, query string) (stmtConn, error) {
	return s.tx.PrepareContext(ctx, query)
}

func (s *sqlTx) Commit() error   { return s.tx.Commit() }
func (s *sqlTx) Rollback() error { return s.tx.Rollback() }

var (
	_ Repository = (*SQLRepository)(nil)
	_ dbConn     = (*sqlDB)(nil)
	_ txConn     = (*sqlTx)(nil)
)
