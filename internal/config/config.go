// Package config defines the import job configuration: a JSON document that
// can be loaded from disk, overridden by CLI flags and checked before the
// pipeline touches anything.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultBatchSize  = 10000
	DefaultSampleRows = 1
	DefaultKind       = "sqlite"
	DefaultDSN        = "data.db"
	DefaultParser     = "csv"
)

// Import is one CSV-to-table import job.
type Import struct {
	Job     string  `json:"job"`
	Source  Source  `json:"source"`
	Parser  Parser  `json:"parser"`
	Storage Storage `json:"storage"`
	Runtime Runtime `json:"runtime"`
}

// Source names the input file and the destination table.
type Source struct {
	// Path of the delimited file. .gz, .bz2, .zst and .xz are decompressed.
	Path string `json:"path"`
	// Table is the destination table. Derived from Path when empty.
	Table string `json:"table,omitempty"`
}

// Parser selects the record parser and its options.
//
// Recognized csv options: comma, lazy_quotes, trim_space, encoding.
type Parser struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options,omitempty"`
}

// Storage selects the destination backend.
type Storage struct {
	// Kind: "sqlite" | "postgres" | "mssql" | "duckdb" | "libsql"
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`
}

// Runtime controls loading behavior.
type Runtime struct {
	// BatchSize is the maximum number of rows per transaction. Nil means
	// DefaultBatchSize; an explicit value must be >= 1.
	// Reduce to 1 to find the exact row a failing batch trips on.
	BatchSize *int `json:"batch_size,omitempty"`

	// SampleRows is how many leading data rows decide the column types.
	// Nil means DefaultSampleRows; 0 infers every column as text.
	SampleRows *int `json:"sample_rows,omitempty"`

	// DryRun prints the generated statements and stops.
	DryRun bool `json:"dry_run"`

	// NoAutoDetectTypes forces every column to TEXT.
	NoAutoDetectTypes bool `json:"no_auto_detect_types"`

	// EmptyAsNull binds empty CSV fields as NULL. Nil means true.
	EmptyAsNull *bool `json:"empty_as_null,omitempty"`

	// ArtifactDir receives failure artifacts. Empty means the working directory.
	ArtifactDir string `json:"artifact_dir,omitempty"`
}

// Batch reports the effective batch size.
func (r Runtime) Batch() int {
	if r.BatchSize == nil {
		return DefaultBatchSize
	}
	return *r.BatchSize
}

// Samples reports the effective sample size.
func (r Runtime) Samples() int {
	if r.SampleRows == nil {
		return DefaultSampleRows
	}
	return *r.SampleRows
}

// IntPtr returns a pointer to n, for the optional numeric fields.
func IntPtr(n int) *int { return &n }

// EmptyValuesAsNull reports the effective EmptyAsNull setting.
func (r Runtime) EmptyValuesAsNull() bool {
	return r.EmptyAsNull == nil || *r.EmptyAsNull
}

// Load reads and decodes an Import from a JSON file. Defaults are not applied.
func Load(path string) (Import, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Import{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Import
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Import{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields. DSN values go through os.ExpandEnv, and an
// empty DSN falls back to $CSVTOSQL_DSN before the sqlite default.
func (c *Import) ApplyDefaults() {
	if c.Parser.Kind == "" {
		c.Parser.Kind = DefaultParser
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = DefaultKind
	}
	c.Storage.Kind = strings.ToLower(strings.TrimSpace(c.Storage.Kind))

	c.Storage.DSN = os.ExpandEnv(c.Storage.DSN)
	if c.Storage.DSN == "" {
		c.Storage.DSN = os.Getenv("CSVTOSQL_DSN")
	}
	if c.Storage.DSN == "" && c.Storage.Kind == DefaultKind {
		c.Storage.DSN = DefaultDSN
	}

	if c.Source.Table == "" && c.Source.Path != "" {
		c.Source.Table = TableFromPath(c.Source.Path)
	}
	if c.Job == "" {
		c.Job = c.Source.Table
	}

	// Explicit values, zero included, are left for ValidateImport.
	if c.Runtime.BatchSize == nil {
		c.Runtime.BatchSize = IntPtr(DefaultBatchSize)
	}
	if c.Runtime.SampleRows == nil {
		c.Runtime.SampleRows = IntPtr(DefaultSampleRows)
	}
}

// TableFromPath derives a table name from a file path:
// "exports/Orders 2024.csv.gz" -> "orders_2024".
func TableFromPath(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".gz", ".bz2", ".zst", ".xz"} {
		base = strings.TrimSuffix(base, ext)
	}
	for _, ext := range []string{".csv", ".tsv", ".txt"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			base = base[:len(base)-len(ext)]
		}
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "import"
	}
	return out
}
