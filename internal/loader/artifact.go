package loader

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"csvtosql/internal/schema"
)

const artifactPrefix = "csvtosql_error_"

// artifactName is csvtosql_error_<UTC timestamp>[_<run id>].sql.
func artifactName(ts time.Time, runID string) string {
	name := artifactPrefix + ts.UTC().Format("20060102T150405Z")
	if runID != "" {
		name += "_" + runID
	}
	return name + ".sql"
}

// writeArtifact dumps the failing batch as literal INSERT statements an
// operator can replay by hand. The file is created exclusively so a
// previous artifact is never overwritten.
func (l *Loader) writeArtifact(b batch, cause error) (string, error) {
	now := time.Now
	if l.now != nil {
		now = l.now
	}
	path := filepath.Join(l.Options.ArtifactDir, artifactName(now(), l.Options.RunID))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "-- csvtosql failed batch\n")
	fmt.Fprintf(w, "-- run: %s\n", l.Options.RunID)
	fmt.Fprintf(w, "-- table: %s\n", l.Table)
	fmt.Fprintf(w, "-- rows: %d-%d\n", b.first, b.last())
	fmt.Fprintf(w, "-- error: %s\n", oneLine(cause.Error()))
	fmt.Fprintf(w, "-- hint: %s\n", Hint)

	vals := make([]any, len(l.Columns))
	for _, rec := range b.rows {
		for i, c := range l.Columns {
			v, err := schema.BindValue(c, rec[i], l.Options.EmptyAsNull)
			if err != nil {
				// Keep the offending value visible so the replay fails at
				// the same place.
				v = rec[i]
			}
			vals[i] = v
		}
		w.WriteString(schema.BuildInsertLiteral(l.Dialect, l.Table, l.Columns, vals))
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close artifact %s: %w", path, err)
	}
	return path, nil
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
