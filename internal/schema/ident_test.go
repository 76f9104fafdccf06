package schema

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"id", "id"},
		{"Unit Price", "unit_price"},
		{"Margin %", "margin_p"},
		{"order", "order_"},
		{"SELECT", "select_"},
		{"  padded  ", "padded"},
		{"\uFEFFbom", "bom"},
		{"naïve", "na_ve"},
		{"a-b.c", "a_b_c"},
		{"", ""},
		{strings.Repeat("x", 80), strings.Repeat("x", 63)},
	}

	for _, tt := range tests {
		if got := NormalizeIdent(tt.in); got != tt.want {
			t.Fatalf("NormalizeIdent(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdents_UniqueAndFilled(t *testing.T) {
	t.Parallel()

	got := NormalizeIdents([]string{"a", "A", "", "a", "%%", "---"})
	want := []string{"a", "a_2", "column_3", "a_3", "pp", "column_6"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeIdents()=%v, want %v", got, want)
	}
}

func TestNormalizeIdents_SuffixRespectsLengthLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("y", 70)
	got := NormalizeIdents([]string{long, long})
	if len(got[1]) > maxIdentLen {
		t.Fatalf("ident %q longer than %d", got[1], maxIdentLen)
	}
	if got[0] == got[1] || !strings.HasSuffix(got[1], "_2") {
		t.Fatalf("NormalizeIdents()=%v, want distinct with _2 suffix", got)
	}
}
