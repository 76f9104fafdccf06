// Package schema decides column types from sampled CSV values and renders the
// statements that create and fill the destination table.
//
// The package is pure: nothing here opens a connection or reads a file. The
// storage backends provide a Dialect so the same builders serve every store.
package schema

import "fmt"

// ScalarType is the closed set of column types the importer can infer.
//
// Values are ordered by widening: Integer < Real < Text. Any Integer value is
// also a valid Real and Text value, any Real value is also valid Text.
type ScalarType uint8

const (
	Integer ScalarType = iota
	Real
	Text
)

// String returns the lowercase label used in logs and reports.
func (t ScalarType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("scalar(%d)", uint8(t))
	}
}

// Widen returns the narrowest type able to represent values of both a and b.
func Widen(a, b ScalarType) ScalarType {
	if a > b {
		return a
	}
	return b
}

// Column is one inferred destination column.
//
// Name is the raw header text. Ident is the normalized identifier used in SQL.
// Ordinal is the 0-based position the loader binds row fields by.
type Column struct {
	Name    string
	Ident   string
	Ordinal int
	Type    ScalarType
}
