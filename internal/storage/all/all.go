// Package all registers every storage backend. Binaries blank-import it so
// the configured kind can be chosen at runtime.
package all

import (
	_ "csvtosql/internal/storage/duckdb"
	_ "csvtosql/internal/storage/libsql"
	_ "csvtosql/internal/storage/mssql"
	_ "csvtosql/internal/storage/postgres"
	_ "csvtosql/internal/storage/sqlite"
)
