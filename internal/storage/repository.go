// Package storage defines the destination-store contract the importer and
// loader use, plus a registry of backends keyed by storage kind.
//
// Backends register themselves from init() together with the SQL dialect
// used to render their statements, so a dry run can build DDL and insert
// templates for any kind without opening a connection.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"csvtosql/internal/schema"
)

// Config is the minimal configuration needed to open a Repository.
type Config struct {
	Kind string
	DSN  string
}

// Repository executes statements against one destination store.
type Repository interface {
	// Exec runs a single statement outside any batch transaction (DDL).
	Exec(ctx context.Context, stmt string) error

	// Begin opens the transaction that scopes one batch.
	Begin(ctx context.Context) (Tx, error)

	// Close releases connections. Call once.
	Close()
}

// Tx is one batch transaction.
//
// Rollback after a successful Commit is a no-op, so callers can defer
// Rollback unconditionally.
type Tx interface {
	// Insert executes stmt once with args bound positionally.
	Insert(ctx context.Context, stmt string, args []any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory opens a Repository for a registered kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

type backend struct {
	dialect schema.Dialect
	open    Factory
}

var (
	mu       sync.RWMutex
	backends = map[string]backend{}
)

// Register adds a backend under kind (e.g. "postgres", "sqlite").
//
// Call it from an init() function in the backend package.
//
// Panics:
//   - If kind is empty, d is nil or f is nil.
//   - If kind is already registered.
func Register(kind string, d schema.Dialect, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if d == nil || f == nil {
		panic(fmt.Sprintf("storage: Register(%q) called with nil dialect or factory", kind))
	}
	if _, exists := backends[kind]; exists {
		panic(fmt.Sprintf("storage: backend already registered for kind=%q", kind))
	}
	backends[kind] = backend{dialect: d, open: f}
}

// New opens a Repository using the backend registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	b, err := lookup(cfg.Kind)
	if err != nil {
		return nil, err
	}
	repo, err := b.open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.Kind, err)
	}
	return repo, nil
}

// DialectFor returns the SQL dialect registered for kind.
func DialectFor(kind string) (schema.Dialect, error) {
	b, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	return b.dialect, nil
}

// Kinds lists registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func lookup(kind string) (backend, error) {
	if kind == "" {
		return backend{}, fmt.Errorf("storage: missing kind")
	}
	mu.RLock()
	b, ok := backends[kind]
	mu.RUnlock()
	if !ok {
		return backend{}, fmt.Errorf("storage: unsupported kind=%s (registered: %v)", kind, Kinds())
	}
	return b, nil
}
