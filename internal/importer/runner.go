// Package importer wires one import job end to end: open the source, infer
// the schema from a sample, render the statements, create the table and
// hand the row stream to the batch loader.
package importer

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"csvtosql/internal/config"
	"csvtosql/internal/datasource/file"
	"csvtosql/internal/loader"
	"csvtosql/internal/metrics"
	csvparser "csvtosql/internal/parser/csv"
	"csvtosql/internal/progress"
	"csvtosql/internal/schema"
	"csvtosql/internal/storage"
)

// Result describes a finished (or dry) run.
type Result struct {
	RunID   string
	Table   string
	Columns []schema.Column
	DDL     string
	Insert  string
	DryRun  bool
	Summary progress.Summary
	// SourceRecords counts the data records read from the source, the
	// sample included. A failed load stops reading at the failing batch.
	SourceRecords int
}

// Runner executes import jobs. The function fields are seams; NewDefaultRunner
// fills them with the real implementations.
type Runner struct {
	// NewRepository opens the destination. It is never called on a dry run.
	NewRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

	// OpenSource opens the (possibly compressed) input file.
	OpenSource func(ctx context.Context, path string) (io.ReadCloser, error)

	// NewRunID tags logs, metrics and failure artifacts.
	NewRunID func() string

	// Progress receives the live throughput line. Nil disables it.
	Progress io.Writer

	// OnPlan, when set, sees the inferred columns and rendered statements
	// before anything is executed.
	OnPlan func(Result)

	Logger  loader.Logger
	Verbose bool
}

// NewDefaultRunner returns a Runner backed by the storage registry and the
// local filesystem.
func NewDefaultRunner(progressOut io.Writer, logger loader.Logger) *Runner {
	return &Runner{
		NewRepository: storage.New,
		OpenSource: func(ctx context.Context, path string) (io.ReadCloser, error) {
			return file.NewLocal(path).Open(ctx)
		},
		NewRunID: uuid.NewString,
		Progress: progressOut,
		Logger:   logger,
	}
}

// Run executes cfg, which must already have defaults applied.
//
// Everything up to and including statement rendering happens before the
// destination is opened, so schema and configuration errors never mutate
// the store. On a load failure the returned Result still carries the
// committed Summary.
func (r *Runner) Run(ctx context.Context, cfg config.Import) (Result, error) {
	if err := config.Check(cfg); err != nil {
		return Result{}, err
	}
	logf := r.logger()

	res := Result{
		RunID:  r.runID(),
		Table:  cfg.Source.Table,
		DryRun: cfg.Runtime.DryRun,
	}

	dialect, err := storage.DialectFor(cfg.Storage.Kind)
	if err != nil {
		return res, err
	}

	in, err := r.OpenSource(ctx, cfg.Source.Path)
	if err != nil {
		return res, err
	}
	defer in.Close()

	rd, err := csvparser.NewReader(in, cfg.Parser.Options)
	if err != nil {
		return res, err
	}

	inferStart := time.Now()
	header, err := rd.Header()
	if err != nil {
		metrics.RecordStep("infer", "error", time.Since(inferStart))
		return res, err
	}
	head, err := readSample(rd, cfg.Runtime.Samples())
	if err != nil {
		metrics.RecordStep("infer", "error", time.Since(inferStart))
		return res, err
	}
	res.Columns, err = schema.Infer(header, head.rows, schema.InferOptions{
		DisableDetection: cfg.Runtime.NoAutoDetectTypes,
	})
	if err != nil {
		metrics.RecordStep("infer", "error", time.Since(inferStart))
		return res, err
	}
	metrics.RecordStep("infer", "ok", time.Since(inferStart))
	logf("stage=infer ok run=%s columns=%d sample_rows=%d duration=%s",
		res.RunID, len(res.Columns), len(head.rows), durMS(inferStart))

	res.DDL = schema.BuildDDL(dialect, res.Table, res.Columns)
	res.Insert = schema.BuildInsertTemplate(dialect, res.Table, res.Columns)
	if r.OnPlan != nil {
		r.OnPlan(res)
	}
	if res.DryRun {
		logf("stage=dry_run ok run=%s table=%s", res.RunID, res.Table)
		return res, nil
	}

	repo, err := r.NewRepository(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return res, err
	}
	defer repo.Close()

	ddlStart := time.Now()
	if err := repo.Exec(ctx, res.DDL); err != nil {
		metrics.RecordStep("ddl", "error", time.Since(ddlStart))
		return res, fmt.Errorf("create table %s: %w", res.Table, err)
	}
	metrics.RecordStep("ddl", "ok", time.Since(ddlStart))
	logf("stage=ddl ok run=%s table=%s duration=%s", res.RunID, res.Table, durMS(ddlStart))

	l := &loader.Loader{
		Repo:     repo,
		Dialect:  dialect,
		Table:    res.Table,
		Columns:  res.Columns,
		Reporter: progress.New(r.Progress),
		Logger:   r.Logger,
		Options: loader.Options{
			BatchSize:   cfg.Runtime.Batch(),
			EmptyAsNull: cfg.Runtime.EmptyValuesAsNull(),
			ArtifactDir: cfg.Runtime.ArtifactDir,
			RunID:       res.RunID,
			Verbose:     r.Verbose,
		},
	}

	loadStart := time.Now()
	res.Summary, err = l.Load(ctx, head.replay(rd), res.Insert)
	res.SourceRecords = rd.Records() - 1
	if err != nil {
		return res, err
	}
	logf("stage=load ok run=%s records=%d rows=%d bytes=%d batches=%d duration=%s",
		res.RunID, res.SourceRecords, res.Summary.RowsInserted, res.Summary.BytesProcessed, res.Summary.Batches, durMS(loadStart))
	return res, nil
}

func (r *Runner) runID() string {
	if r.NewRunID == nil {
		return uuid.NewString()
	}
	return r.NewRunID()
}

func (r *Runner) logger() func(format string, v ...any) {
	if r.Logger == nil {
		return log.New(io.Discard, "", 0).Printf
	}
	return r.Logger.Printf
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }
