package schema

import (
	"fmt"
	"strconv"
)

// CoercionError reports a raw value that does not fit its inferred column type.
// It is how a row wider than the sample surfaces at load time.
type CoercionError struct {
	Column string
	Type   ScalarType
	Value  string
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("column %q: cannot store %q as %s: %v", e.Column, e.Value, e.Type, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// BindValue converts a raw CSV field into the Go value bound for column c.
//
// Empty fields become nil (SQL NULL) when emptyAsNull is set. Text columns
// always bind the raw string. A value Classify places above the column type
// is rejected even when strconv could parse it ("inf", "0x1p3", "+5" in an
// integer column).
func BindValue(c Column, raw string, emptyAsNull bool) (any, error) {
	if raw == "" && emptyAsNull {
		return nil, nil
	}
	if t := Classify(raw); t > c.Type {
		return nil, &CoercionError{Column: c.Name, Type: c.Type, Value: raw, Err: fmt.Errorf("value is %s", t)}
	}
	switch c.Type {
	case Integer:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &CoercionError{Column: c.Name, Type: c.Type, Value: raw, Err: err}
		}
		return n, nil
	case Real:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &CoercionError{Column: c.Name, Type: c.Type, Value: raw, Err: err}
		}
		return f, nil
	default:
		return raw, nil
	}
}

// BindRow converts a whole row. dst is reused when it has enough capacity.
// The row must already have len(cols) fields.
func BindRow(dst []any, cols []Column, row []string, emptyAsNull bool) ([]any, error) {
	if cap(dst) < len(cols) {
		dst = make([]any, len(cols))
	}
	dst = dst[:len(cols)]
	for i, c := range cols {
		v, err := BindValue(c, row[i], emptyAsNull)
		if err != nil {
			return dst, err
		}
		dst[i] = v
	}
	return dst, nil
}
