package config

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Severity classifies a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path uses dotted JSON field names.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// StorageKinds lists the backend kinds an Import may name.
var StorageKinds = []string{"sqlite", "postgres", "mssql", "duckdb", "libsql"}

// Encodings lists the source encodings the csv parser can decode.
var Encodings = []string{"utf-8", "utf-16", "latin1", "iso-8859-1", "windows-1252", "windows-1250"}

// ValidateImport checks a defaulted Import and returns every finding.
// Callers decide what to do with warnings; any SeverityError blocks the run.
func ValidateImport(c Import) []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(c.Source.Path) == "" {
		add(SeverityError, "source.path", "is required")
	}
	if strings.TrimSpace(c.Source.Table) == "" {
		add(SeverityError, "source.table", "is required when it cannot be derived from source.path")
	}

	if c.Parser.Kind != "csv" {
		add(SeverityError, "parser.kind", "unsupported parser %q (want csv)", c.Parser.Kind)
	}
	if v, ok := c.Parser.Options.Any("comma").(string); ok {
		r := c.Parser.Options.Rune("comma", 0)
		switch {
		case r == 0 || r == utf8.RuneError:
			add(SeverityError, "parser.options.comma", "invalid delimiter %q", v)
		case r == '"' || r == '\r' || r == '\n':
			add(SeverityError, "parser.options.comma", "delimiter %q is not allowed", r)
		case v != `\t` && v != "tab" && utf8.RuneCountInString(v) > 1:
			add(SeverityWarning, "parser.options.comma", "only the first rune of %q is used", v)
		}
	}
	if enc := c.Parser.Options.String("encoding", ""); enc != "" && !slices.Contains(Encodings, strings.ToLower(enc)) {
		add(SeverityError, "parser.options.encoding", "unsupported encoding %q (want one of %s)", enc, strings.Join(Encodings, ", "))
	}

	if !slices.Contains(StorageKinds, c.Storage.Kind) {
		add(SeverityError, "storage.kind", "unknown backend %q (want one of %s)", c.Storage.Kind, strings.Join(StorageKinds, "|"))
	}
	if c.Storage.DSN == "" && !c.Runtime.DryRun {
		add(SeverityError, "storage.dsn", "is required for %s", c.Storage.Kind)
	}

	if n := c.Runtime.Batch(); n < 1 {
		add(SeverityError, "runtime.batch_size", "must be >= 1, got %d", n)
	}
	if n := c.Runtime.Samples(); n < 0 {
		add(SeverityError, "runtime.sample_rows", "must be >= 0, got %d", n)
	}
	if c.Runtime.NoAutoDetectTypes && c.Runtime.Samples() > 1 {
		add(SeverityWarning, "runtime.sample_rows", "ignored when no_auto_detect_types is set")
	}

	return issues
}

// ConfigurationError reports an Import that failed validation.
type ConfigurationError struct {
	Issues []Issue
}

func (e *ConfigurationError) Error() string {
	var msgs []string
	for _, iss := range e.Issues {
		if iss.Severity == SeverityError {
			msgs = append(msgs, iss.Path+": "+iss.Message)
		}
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Check runs ValidateImport and returns a *ConfigurationError when any issue
// is an error. Warnings alone return nil.
func Check(c Import) error {
	issues := ValidateImport(c)
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return &ConfigurationError{Issues: issues}
		}
	}
	return nil
}
