// Package duckdb registers the "duckdb" backend. The DSN is a database file
// path.
package duckdb

import (
	"context"

	_ "github.com/marcboeker/go-duckdb/v2"

	"csvtosql/internal/schema"
	"csvtosql/internal/storage"
)

var Dialect = schema.Standard{
	Label: "duckdb",
	Types: [3]string{"BIGINT", "DOUBLE", "VARCHAR"},
}

func init() {
	storage.Register("duckdb", Dialect, Open)
}

func Open(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	return storage.OpenSQL(ctx, "duckdb", cfg.DSN, 1)
}
