// Command csvtosql loads one delimited file into one SQL table, inferring
// the column types from the leading rows.
//
//	csvtosql -file orders.csv.gz -backend postgres -db "$PG_DSN" -batch-size 5000
//	csvtosql -config job.json -dry-run
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"csvtosql/internal/config"
	"csvtosql/internal/importer"
	"csvtosql/internal/loader"
	"csvtosql/internal/metrics"
	"csvtosql/internal/metrics/datadog"

	// register every backend with the storage registry; the job picks one.
	_ "csvtosql/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runMain(ctx, os.Args[1:], os.Stdout, os.Stderr, defaultDeps())
	stop()
	os.Exit(code)
}

// runner is the slice of importer.Runner the CLI depends on.
type runner interface {
	Run(ctx context.Context, cfg config.Import) (importer.Result, error)
}

// appDeps are the side-effecting seams of runMain.
type appDeps struct {
	loadConfig  func(path string) (config.Import, error)
	newRunner   func(stdout io.Writer, logger *log.Logger, verbose bool) runner
	initMetrics func(ctx context.Context, jobName, backendName string) (func(), error)
}

func defaultDeps() appDeps {
	return appDeps{
		loadConfig:  config.Load,
		newRunner:   newImportRunner,
		initMetrics: initMetrics,
	}
}

func newImportRunner(stdout io.Writer, logger *log.Logger, verbose bool) runner {
	r := importer.NewDefaultRunner(stdout, logger)
	r.Verbose = verbose
	r.OnPlan = func(res importer.Result) { printPlan(stdout, res) }
	return r
}

const usage = "usage: csvtosql -file data.csv [-table t] [-backend sqlite|postgres|mssql|duckdb|libsql] [-db dsn] | -config job.json"

// runMain is main without the process exit: it returns 2 for usage and
// configuration errors, 1 for runtime failures and 0 on success.
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer, deps appDeps) int {
	fs := flag.NewFlagSet("csvtosql", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath        = fs.String("config", "", "import job config JSON path")
		filePath       = fs.String("file", "", "delimited input file (.gz, .bz2, .zst, .xz are decompressed)")
		table          = fs.String("table", "", "destination table (default: derived from the file name)")
		dsn            = fs.String("db", "", "destination DSN (default: $CSVTOSQL_DSN, or data.db for sqlite)")
		backend        = fs.String("backend", "", "storage backend: sqlite|postgres|mssql|duckdb|libsql")
		batchSize      = fs.Int("batch-size", 0, "rows per transaction (default 10000)")
		sampleRows     = fs.Int("sample-rows", 0, "leading rows used to infer column types (default 1)")
		dryRun         = fs.Bool("dry-run", false, "print the generated statements and exit")
		noDetect       = fs.Bool("no-auto-detect-types", false, "create every column as text")
		delimiter      = fs.String("delimiter", "", `field delimiter (e.g. ";" or "\t")`)
		artifactDir    = fs.String("artifact-dir", "", "directory for failed-batch SQL dumps")
		metricsBackend = fs.String("metrics-backend", "", "metrics backend: none|datadog (default $METRICS_BACKEND)")
		verbose        = fs.Bool("v", false, "enable verbose logs")
		validate       = fs.Bool("validate", false, "validate the configuration and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*cfgPath) == "" && strings.TrimSpace(*filePath) == "" {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	var cfg config.Import
	if p := strings.TrimSpace(*cfgPath); p != "" {
		loaded, err := deps.loadConfig(p)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		cfg = loaded
	}

	// Flags override the file only when given explicitly.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "file":
			cfg.Source.Path = *filePath
		case "table":
			cfg.Source.Table = *table
		case "db":
			cfg.Storage.DSN = *dsn
		case "backend":
			cfg.Storage.Kind = *backend
		case "batch-size":
			cfg.Runtime.BatchSize = config.IntPtr(*batchSize)
		case "sample-rows":
			cfg.Runtime.SampleRows = config.IntPtr(*sampleRows)
		case "dry-run":
			cfg.Runtime.DryRun = *dryRun
		case "no-auto-detect-types":
			cfg.Runtime.NoAutoDetectTypes = *noDetect
		case "delimiter":
			if cfg.Parser.Options == nil {
				cfg.Parser.Options = config.Options{}
			}
			cfg.Parser.Options["comma"] = *delimiter
		case "artifact-dir":
			cfg.Runtime.ArtifactDir = *artifactDir
		}
	})
	cfg.ApplyDefaults()

	hasError := false
	for _, iss := range config.ValidateImport(cfg) {
		fmt.Fprintln(stderr, iss.String())
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		return 2
	}
	if *validate {
		fmt.Fprintln(stdout, "ok")
		return 0
	}

	backendName := *metricsBackend
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	cleanup, err := deps.initMetrics(ctx, cfg.Job, backendName)
	if err != nil {
		fmt.Fprintf(stderr, "init metrics: %v\n", err)
		return 1
	}
	defer cleanup()

	logger := log.New(stderr, "", log.LstdFlags)
	if !*verbose {
		logger.SetOutput(io.Discard)
	}

	start := time.Now()
	res, err := deps.newRunner(stdout, logger, *verbose).Run(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "run: %v\n", err)
		if loader.IsBatchFailure(err) {
			fmt.Fprintf(stderr, "hint: %s\n", loader.Hint)
		}
		// Push what the failed run recorded before the backend is closed.
		if ferr := flushMetrics(); ferr != nil {
			logPrintf("metrics: flush error: %v", ferr)
		}
		return 1
	}
	logger.Printf("completed run=%s table=%s in %s", res.RunID, res.Table, time.Since(start).Truncate(time.Millisecond))

	fmt.Fprintln(stdout, "ok")
	return 0
}

// printPlan lists the inferred columns and the statements about to run.
func printPlan(w io.Writer, res importer.Result) {
	fmt.Fprintf(w, "Table %s:\n", res.Table)
	for _, c := range res.Columns {
		fmt.Fprintf(w, "> %s (%s): %s\n", c.Ident, c.Name, c.Type)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, res.DDL)
	if res.DryRun {
		fmt.Fprintln(w, res.Insert+";")
	}
}

// metricsBackend is what initMetrics needs from a concrete backend.
type metricsBackend interface {
	Close() error
}

// Seams for initMetrics and failure-path tests.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (metricsBackend, error) {
		return datadog.NewBackend(ctx, opts)
	}
	setMetricsBackend = func(b any) {
		if mb, ok := b.(metrics.Backend); ok {
			metrics.SetBackend(mb)
		}
	}
	flushMetrics = metrics.Flush
	logPrintf    = log.Printf
)

// initMetrics installs the named metrics backend. The returned cleanup is
// never nil and flushes/closes the backend.
func initMetrics(ctx context.Context, jobName, backendName string) (func(), error) {
	nop := func() {}

	switch strings.ToLower(strings.TrimSpace(backendName)) {
	case "", "none", "noop":
		return nop, nil

	case "datadog", "dd":
		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    jobName,
			Tags:       datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			return nop, fmt.Errorf("datadog: %w", err)
		}
		setMetricsBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logPrintf("metrics: datadog close error: %v", err)
			}
		}, nil

	default:
		return nop, fmt.Errorf("unknown metrics backend %q (want none|datadog)", backendName)
	}
}
