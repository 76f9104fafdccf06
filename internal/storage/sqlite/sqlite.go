// Package sqlite registers the default "sqlite" backend, backed by the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"

	_ "modernc.org/sqlite"

	"csvtosql/internal/schema"
	"csvtosql/internal/storage"
)

// Dialect renders SQLite statements. SQLite resolves column affinity from
// the declared type name, so the three storage classes map directly.
var Dialect = schema.Standard{
	Label: "sqlite",
	Types: [3]string{"INTEGER", "REAL", "TEXT"},
}

func init() {
	storage.Register("sqlite", Dialect, Open)
}

// Open connects to a SQLite database file (created if missing).
//
// SQLite allows one writer at a time, so the pool is capped at a single
// connection; batches are sequential anyway.
func Open(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	return storage.OpenSQL(ctx, "sqlite", cfg.DSN, 1)
}
