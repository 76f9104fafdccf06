// Package loader streams rows into the destination table in bounded,
// transactional batches.
//
// Batches partition the row stream contiguously and in order. Each batch is
// one transaction: all of its rows become visible or none do. The next batch
// is not assembled until the previous one has committed, so at most
// BatchSize rows are held in memory. The first failing batch halts the load
// and is dumped to a replayable SQL artifact.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"csvtosql/internal/metrics"
	"csvtosql/internal/progress"
	"csvtosql/internal/schema"
	"csvtosql/internal/storage"
)

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 10000

// Logger is the minimal logging interface used by the loader and importer.
// *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// Row is one data record, positional against the frozen columns.
type Row = []string

// Source yields positional rows and io.EOF when exhausted.
type Source interface {
	Next() ([]string, error)
}

// liner is implemented by sources that know the line of the last record.
type liner interface {
	Line() int
}

// Options tunes a Loader.
type Options struct {
	BatchSize int
	// EmptyAsNull binds empty fields as SQL NULL.
	EmptyAsNull bool
	// ArtifactDir receives failure artifacts; "" is the working directory.
	ArtifactDir string
	// RunID tags logs and artifact names.
	RunID string
	// Verbose logs every batch state transition.
	Verbose bool
}

// Loader inserts rows of one table. Columns must be the frozen inferred
// schema; rows bind positionally to them.
type Loader struct {
	Repo     storage.Repository
	Dialect  schema.Dialect
	Table    string
	Columns  []schema.Column
	Reporter *progress.Reporter
	Logger   Logger
	Options  Options

	// now stamps artifact names; tests pin it.
	now func() time.Time
}

// batch is the unit of work handed from assembly to execution.
type batch struct {
	first int
	rows  []Row
}

func (b batch) last() int { return b.first + len(b.rows) - 1 }

// Load consumes src to exhaustion or until the first error.
//
// The returned Summary always reflects committed work, including when an
// error is returned. Errors are *RowArityError, *BatchExecutionError, the
// source's own read error, or the context's error on cancellation.
func (l *Loader) Load(ctx context.Context, src Source, template string) (progress.Summary, error) {
	if l.Reporter == nil {
		l.Reporter = progress.New(nil)
	}
	size := l.Options.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	l.Reporter.Start()
	started := time.Now()

	var (
		row       int
		committed int
		cur       = batch{rows: make([]Row, 0, size)}
	)

	fail := func(err error) (progress.Summary, error) {
		metrics.RecordStep("load", "error", time.Since(started))
		return l.Reporter.Finish(err), err
	}

	for {
		if err := ctx.Err(); err != nil {
			l.logf("stage=load canceled last_committed=%d", committed)
			return fail(err)
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(err)
		}
		row++

		if len(rec) != len(l.Columns) {
			ae := &RowArityError{Row: row, Want: len(l.Columns), Got: len(rec), LastCommitted: committed}
			if ln, ok := src.(liner); ok {
				ae.Line = ln.Line()
			}
			if len(cur.rows) > 0 {
				l.transition(cur, Failed, "reason=arity")
			}
			return fail(ae)
		}

		if len(cur.rows) == 0 {
			cur.first = row
		}
		cur.rows = append(cur.rows, rec)
		if len(cur.rows) == 1 {
			l.transition(cur, Pending, "")
		}
		if len(cur.rows) < size {
			continue
		}

		if err := l.execute(ctx, cur, template); err != nil {
			return fail(err)
		}
		committed = cur.last()
		cur.rows = cur.rows[:0]
	}

	if len(cur.rows) > 0 {
		if err := l.execute(ctx, cur, template); err != nil {
			return fail(err)
		}
	}

	metrics.RecordStep("load", "ok", time.Since(started))
	return l.Reporter.Finish(nil), nil
}

// execute runs one batch as a transaction and advances the reporter on
// success. On failure it writes the artifact and returns *BatchExecutionError.
func (l *Loader) execute(ctx context.Context, b batch, template string) error {
	l.transition(b, Executing, "")

	size, err := l.runTx(ctx, b, template)
	if err == nil {
		l.transition(b, Committed, "")
		l.Reporter.Committed(len(b.rows), size)
		return nil
	}

	l.transition(b, Failed, fmt.Sprintf("err=%q", err.Error()))
	metrics.RecordStep("batch", "error", 0)

	if ctx.Err() != nil {
		return fmt.Errorf("batch rows %d-%d: %w", b.first, b.last(), ctx.Err())
	}

	be := &BatchExecutionError{FirstRow: b.first, LastRow: b.last(), LastCommitted: b.first - 1, Err: err}
	be.Artifact, be.ArtifactErr = l.writeArtifact(b, err)
	if l.Logger != nil {
		l.Logger.Printf("stage=load batch=%d-%d failed artifact=%s hint=%q", b.first, b.last(), be.Artifact, Hint)
	}
	return be
}

// runTx inserts every row of b inside one transaction. The deferred
// Rollback is a no-op after Commit and releases the transaction on every
// other path, including panics and cancellation.
func (l *Loader) runTx(ctx context.Context, b batch, template string) (int64, error) {
	tx, err := l.Repo.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	var (
		size int64
		args = make([]any, len(l.Columns))
	)
	for i, rec := range b.rows {
		args, err = schema.BindRow(args, l.Columns, rec, l.Options.EmptyAsNull)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", b.first+i, err)
		}
		if err := tx.Insert(ctx, template, args); err != nil {
			return 0, fmt.Errorf("row %d: insert: %w", b.first+i, err)
		}
		for _, f := range rec {
			size += int64(len(f))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return size, nil
}

func (l *Loader) transition(b batch, s State, extra string) {
	if !l.Options.Verbose || l.Logger == nil {
		return
	}
	msg := fmt.Sprintf("stage=load run=%s batch=%d-%d rows=%d state=%s", l.Options.RunID, b.first, b.last(), len(b.rows), s)
	if extra != "" {
		msg += " " + extra
	}
	l.Logger.Printf("%s", msg)
}

func (l *Loader) logf(format string, v ...any) {
	if l.Logger != nil {
		l.Logger.Printf(format, v...)
	}
}

// IsBatchFailure reports whether err is a rejected batch.
func IsBatchFailure(err error) bool {
	var be *BatchExecutionError
	return errors.As(err, &be)
}
