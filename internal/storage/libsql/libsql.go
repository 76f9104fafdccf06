// Package libsql registers the "libsql" backend for remote SQLite-compatible
// databases (Turso, sqld). DSNs look like libsql://host?authToken=... .
package libsql

import (
	"context"

	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"csvtosql/internal/schema"
	"csvtosql/internal/storage"
)

// Dialect matches SQLite's.
var Dialect = schema.Standard{
	Label: "libsql",
	Types: [3]string{"INTEGER", "REAL", "TEXT"},
}

func init() {
	storage.Register("libsql", Dialect, Open)
}

func Open(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	return storage.OpenSQL(ctx, "libsql", cfg.DSN, 1)
}
