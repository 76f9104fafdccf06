package schema

import (
	"strconv"
	"strings"
)

// maxIdentLen is the Postgres identifier limit, the tightest of the supported stores.
const maxIdentLen = 63

// reserved lists SQL keywords that get a trailing underscore when they appear
// as a normalized column name.
var reserved = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		add all alter and as asc autoincrement between by cascade case cast
		check collate column commit conflict constraint create cross
		current_date current_time current_timestamp database default
		deferrable deferred delete desc distinct drop each else end escape
		except exclusive exists explain fail for foreign from full glob group
		having if ignore immediate in index indexed initially inner insert
		instead intersect into is isnull join key left like limit match
		natural no not notnull null of offset on or order outer plan pragma
		primary query raise recursive references regexp reindex release
		rename replace restrict right rollback row savepoint select set table
		temp temporary then to transaction trigger union unique update using
		vacuum values view virtual when where with without`) {
		reserved[w] = struct{}{}
	}
}

// NormalizeIdent converts a raw header into a lowercase SQL identifier.
//
// ASCII letters and digits are kept, '%' becomes 'p', anything else becomes
// '_'. Reserved words get a trailing '_'. The result is cut to 63 bytes.
// An empty result is returned as "".
func NormalizeIdent(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == '%':
			b.WriteByte('p')
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if _, ok := reserved[out]; ok {
		out += "_"
	}
	if len(out) > maxIdentLen {
		out = out[:maxIdentLen]
	}
	return out
}

// NormalizeIdents normalizes a header row and makes the results unique.
//
// Blank results become column_<n> (1-based). Repeats get _2, _3, ... in
// header order, so "a,A" yields "a,a_2".
func NormalizeIdents(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		base := NormalizeIdent(h)
		if strings.Trim(base, "_") == "" {
			base = "column_" + strconv.Itoa(i+1)
		}

		id := base
		for n := 2; used[id]; n++ {
			suffix := "_" + strconv.Itoa(n)
			stem := base
			if len(stem)+len(suffix) > maxIdentLen {
				stem = stem[:maxIdentLen-len(suffix)]
			}
			id = stem + suffix
		}
		used[id] = true
		out[i] = id
	}
	return out
}
