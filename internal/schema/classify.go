package schema

import (
	"math"
	"strconv"
)

// Classify returns the narrowest ScalarType able to hold v.
//
// Rules, in order:
//   - "" is Text (there is no null type to distinguish a blank field).
//   - optional '-' followed by digits, within int64 range, is Integer.
//   - optional sign, digits with an optional '.', optional exponent, finite
//     as float64, is Real.
//   - everything else is Text.
//
// Classify never fails.
func Classify(v string) ScalarType {
	if v == "" {
		return Text
	}
	if isIntegerLiteral(v) {
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			return Integer
		}
	}
	if isFloatLiteral(v) {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return Real
		}
	}
	return Text
}

func isIntegerLiteral(v string) bool {
	i := 0
	if v[0] == '-' {
		i = 1
	}
	if i == len(v) {
		return false
	}
	for ; i < len(v); i++ {
		if !isDigit(v[i]) {
			return false
		}
	}
	return true
}

// isFloatLiteral matches [+-]? (digits [. digits?] | . digits) ([eE] [+-]? digits)?
// strconv.ParseFloat alone is too permissive (inf, nan, hex, underscores).
func isFloatLiteral(v string) bool {
	i := 0
	n := len(v)
	if i < n && (v[i] == '+' || v[i] == '-') {
		i++
	}

	mantissa := 0
	for i < n && isDigit(v[i]) {
		i++
		mantissa++
	}
	if i < n && v[i] == '.' {
		i++
		for i < n && isDigit(v[i]) {
			i++
			mantissa++
		}
	}
	if mantissa == 0 {
		return false
	}

	if i < n && (v[i] == 'e' || v[i] == 'E') {
		i++
		if i < n && (v[i] == '+' || v[i] == '-') {
			i++
		}
		exp := 0
		for i < n && isDigit(v[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}

	return i == n
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
