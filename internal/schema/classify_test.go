package schema

import (
	"math/rand"
	"strconv"
	"testing"
)

func TestClassify_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want ScalarType
	}{
		{"empty_is_text", "", Text},
		{"zero", "0", Integer},
		{"positive", "42", Integer},
		{"negative", "-42", Integer},
		{"leading_zeros", "007", Integer},
		{"int64_max", "9223372036854775807", Integer},
		{"int64_min", "-9223372036854775808", Integer},
		{"above_int64_is_real", "9223372036854775808", Real},
		{"plus_sign_is_real", "+1", Real},
		{"decimal", "9.99", Real},
		{"negative_decimal", "-0.5", Real},
		{"leading_dot", ".5", Real},
		{"trailing_dot", "5.", Real},
		{"exponent", "1e5", Real},
		{"signed_exponent", "2.5E-3", Real},
		{"overflow_float_is_text", "1e400", Text},
		{"bare_minus", "-", Text},
		{"bare_dot", ".", Text},
		{"exponent_without_digits", "1e", Text},
		{"exponent_without_mantissa", "e5", Text},
		{"two_dots", "1.2.3", Text},
		{"inf", "inf", Text},
		{"nan", "NaN", Text},
		{"hex", "0x10", Text},
		{"underscore", "1_000", Text},
		{"leading_space", " 1", Text},
		{"trailing_space", "1 ", Text},
		{"thousands_separator", "1,000", Text},
		{"word", "Widget", Text},
		{"date", "2024-01-02", Text},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.in); got != tt.want {
				t.Fatalf("Classify(%q)=%s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

// TestClassify_WideningSoundness checks that every Integer value also matches
// the Real grammar, so widening a column never strands an already-seen value.
func TestClassify_WideningSoundness(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	values := []string{"0", "-0", "1", "-1", "9223372036854775807", "-9223372036854775808"}
	for i := 0; i < 500; i++ {
		values = append(values, strconv.FormatInt(rng.Int63()-rng.Int63(), 10))
	}

	for _, v := range values {
		if Classify(v) != Integer {
			t.Fatalf("Classify(%q)=%s, want integer", v, Classify(v))
		}
		if !isFloatLiteral(v) {
			t.Fatalf("integer %q does not match the real grammar", v)
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			t.Fatalf("integer %q does not parse as float: %v", v, err)
		}
	}
}

func TestWiden(t *testing.T) {
	t.Parallel()

	all := []ScalarType{Integer, Real, Text}
	for _, a := range all {
		for _, b := range all {
			got := Widen(a, b)
			if got != Widen(b, a) {
				t.Fatalf("Widen not commutative for %s,%s", a, b)
			}
			if got < a || got < b {
				t.Fatalf("Widen(%s,%s)=%s is narrower than an input", a, b, got)
			}
		}
	}
	if Widen(Integer, Real) != Real || Widen(Real, Text) != Text || Widen(Integer, Integer) != Integer {
		t.Fatalf("unexpected widening order")
	}
}

func TestScalarType_String(t *testing.T) {
	t.Parallel()

	if Integer.String() != "integer" || Real.String() != "real" || Text.String() != "text" {
		t.Fatalf("unexpected labels: %s %s %s", Integer, Real, Text)
	}
	if got := ScalarType(9).String(); got != "scalar(9)" {
		t.Fatalf("String()=%q, want scalar(9)", got)
	}
}
