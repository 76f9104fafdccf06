package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"csvtosql/internal/schema"
)

type fakeResults struct {
	n       int
	failAt  int
	err     error
	closeds int
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	r.n++
	if r.failAt == r.n {
		return pgconn.CommandTag{}, r.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}
func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("unused") }
func (r *fakeResults) QueryRow() pgx.Row        { return nil }
func (r *fakeResults) Close() error             { r.closeds++; return nil }

type fakeTx struct {
	sent      []*pgx.Batch
	results   *fakeResults
	commits   int
	rollbacks int
	closed    bool
}

func (f *fakeTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.sent = append(f.sent, b)
	return f.results
}

func (f *fakeTx) Commit(context.Context) error {
	f.commits++
	f.closed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rollbacks++
	if f.closed {
		return pgx.ErrTxClosed
	}
	return nil
}

func TestTx_QueuesAndSendsOnCommit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ft := &fakeTx{results: &fakeResults{}}
	tx := newTx(ft)

	args := make([]any, 1)
	for i := 0; i < 3; i++ {
		args[0] = int64(i)
		if err := tx.Insert(ctx, "INSERT INTO t (a) VALUES ($1)", args); err != nil {
			t.Fatal(err)
		}
	}
	if len(ft.sent) != 0 {
		t.Fatalf("batch sent before Commit")
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit() err=%v", err)
	}
	if len(ft.sent) != 1 || ft.sent[0].Len() != 3 {
		t.Fatalf("sent=%d batches, want one batch of 3", len(ft.sent))
	}
	for i, q := range ft.sent[0].QueuedQueries {
		if q.Arguments[0] != int64(i) {
			t.Fatalf("queued row %d args=%v, want copied value %d", i, q.Arguments, i)
		}
	}
	if ft.commits != 1 || ft.results.closeds != 1 {
		t.Fatalf("commits=%d closes=%d", ft.commits, ft.results.closeds)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback() after commit err=%v, want nil", err)
	}
}

func TestTx_CommitReportsFailingRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("invalid input syntax for type bigint")
	ft := &fakeTx{results: &fakeResults{failAt: 2, err: boom}}
	tx := newTx(ft)
	for i := 0; i < 3; i++ {
		_ = tx.Insert(ctx, "INSERT", []any{i})
	}

	err := tx.Commit(ctx)
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "batch row 2") {
		t.Fatalf("Commit() err=%v, want row 2 failure", err)
	}
	if ft.commits != 0 {
		t.Fatalf("commits=%d, want 0", ft.commits)
	}
	if err := tx.Rollback(ctx); err != nil || ft.rollbacks != 1 {
		t.Fatalf("Rollback() err=%v rollbacks=%d", err, ft.rollbacks)
	}
}

func TestDialect(t *testing.T) {
	t.Parallel()

	cols := []schema.Column{{Ident: "id", Type: schema.Integer}, {Ident: "v", Type: schema.Real}}
	ddl := schema.BuildDDL(Dialect, "public.items", cols)
	want := "CREATE TABLE IF NOT EXISTS \"public\".\"items\" (\n  \"id\" BIGINT,\n  \"v\" DOUBLE PRECISION\n);"
	if ddl != want {
		t.Fatalf("BuildDDL()=%q, want %q", ddl, want)
	}
	if got := schema.BuildInsertTemplate(Dialect, "items", cols); got != `INSERT INTO "items" ("id", "v") VALUES ($1, $2)` {
		t.Fatalf("BuildInsertTemplate()=%q", got)
	}
}
