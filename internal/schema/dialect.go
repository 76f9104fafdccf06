package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect is the per-store knowledge needed to render DDL, insert templates
// and replayable literal statements.
type Dialect interface {
	// Name is the storage kind the dialect belongs to ("sqlite", "postgres", ...).
	Name() string
	// QuoteIdent quotes a single identifier.
	QuoteIdent(name string) string
	// QuoteTable quotes a possibly schema-qualified table name ("dbo.t").
	QuoteTable(name string) string
	// Placeholder returns the bind marker for the n-th (1-based) parameter.
	Placeholder(n int) string
	// TypeName maps an inferred type to the store's column type.
	TypeName(t ScalarType) string
	// CreateTable wraps column definitions in an idempotent create statement.
	CreateTable(table string, defs []string) string
	// Literal renders a bound value as SQL text.
	Literal(v any) string
}

// PlaceholderStyle selects how Standard renders bind markers.
type PlaceholderStyle uint8

const (
	// QuestionMark renders "?" (sqlite, libsql, duckdb).
	QuestionMark PlaceholderStyle = iota
	// DollarNumber renders "$1", "$2", ... (postgres).
	DollarNumber
	// AtPNumber renders "@p1", "@p2", ... (sqlserver).
	AtPNumber
)

// Standard is a table-driven Dialect covering the supported stores.
//
// A nil CreateGuard renders "CREATE TABLE IF NOT EXISTS". Stores without that
// syntax supply a guard that wraps the plain CREATE TABLE.
type Standard struct {
	Label        string
	Types        [3]string
	Placeholders PlaceholderStyle
	IdentOpen    string
	IdentClose   string

	// NationalStrings prefixes string literals with N (N'...').
	NationalStrings bool

	CreateGuard func(table, quotedTable, createSQL string) string
}

func (d Standard) Name() string { return d.Label }

func (d Standard) QuoteIdent(name string) string {
	open, closer := d.IdentOpen, d.IdentClose
	if open == "" {
		open, closer = `"`, `"`
	}
	return open + strings.ReplaceAll(name, closer, closer+closer) + closer
}

func (d Standard) QuoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = d.QuoteIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}

func (d Standard) Placeholder(n int) string {
	switch d.Placeholders {
	case DollarNumber:
		return "$" + strconv.Itoa(n)
	case AtPNumber:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

func (d Standard) TypeName(t ScalarType) string {
	if int(t) < len(d.Types) && d.Types[t] != "" {
		return d.Types[t]
	}
	return []string{"INTEGER", "REAL", "TEXT"}[min(int(t), 2)]
}

func (d Standard) CreateTable(table string, defs []string) string {
	quoted := d.QuoteTable(table)
	body := "(\n  " + strings.Join(defs, ",\n  ") + "\n)"
	if d.CreateGuard == nil {
		return "CREATE TABLE IF NOT EXISTS " + quoted + " " + body + ";"
	}
	return d.CreateGuard(table, quoted, "CREATE TABLE "+quoted+" "+body+";")
}

func (d Standard) Literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case time.Time:
		return d.quoteString(t.UTC().Format(time.RFC3339Nano))
	case string:
		return d.quoteString(t)
	case []byte:
		return d.quoteString(string(t))
	default:
		return d.quoteString(fmt.Sprint(v))
	}
}

func (d Standard) quoteString(s string) string {
	q := "'" + strings.ReplaceAll(s, "'", "''") + "'"
	if d.NationalStrings {
		return "N" + q
	}
	return q
}

var _ Dialect = Standard{}
