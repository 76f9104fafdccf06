package schema

import "strings"

// BuildDDL renders the idempotent create statement for table.
//
// Column definitions appear in ordinal order. Re-running the statement against
// an existing table of the same name is a no-op.
func BuildDDL(d Dialect, table string, cols []Column) string {
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, d.QuoteIdent(c.Ident)+" "+d.TypeName(c.Type))
	}
	return d.CreateTable(table, defs)
}

// BuildInsertTemplate renders a one-row parameterized INSERT.
//
// Placeholder i binds row field i, so the column list must stay in ordinal
// order; the loader never looks columns up by name.
func BuildInsertTemplate(d Dialect, table string, cols []Column) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteTable(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdent(c.Ident))
	}
	b.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Placeholder(i + 1))
	}
	b.WriteString(")")
	return b.String()
}

// BuildInsertLiteral renders one row as a standalone INSERT with inlined
// values. It is used for failure artifacts that an operator can replay by hand.
func BuildInsertLiteral(d Dialect, table string, cols []Column, values []any) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteTable(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.QuoteIdent(c.Ident))
	}
	b.WriteString(") VALUES (")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Literal(v))
	}
	b.WriteString(");")
	return b.String()
}
