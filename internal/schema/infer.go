package schema

import (
	"errors"
	"fmt"
)

// ErrNoColumns is returned by Infer when the header row is empty.
var ErrNoColumns = errors.New("header has no columns")

// SchemaError reports that a column set cannot be derived from the header and
// sample rows. It always happens before the destination is touched.
type SchemaError struct {
	// Row is the 1-based data row that disagreed with the header, or 0 when
	// the header itself is the problem.
	Row int
	Err error
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema: sample row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("schema: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// InferOptions tunes Infer.
type InferOptions struct {
	// DisableDetection forces every column to Text without classifying.
	DisableDetection bool
}

// Infer derives the column set from the header and a fixed sample of data rows.
//
// Each column type is the supremum of Classify over the sampled values, so
// every sampled value fits the chosen type. With one sample row this is exactly
// Classify(value). With no sample rows every column is Text.
//
// Infer does not look past the sample. A later row holding a wider value is
// only discovered when the store rejects it.
func Infer(header []string, samples [][]string, opt InferOptions) ([]Column, error) {
	if len(header) == 0 {
		return nil, &SchemaError{Err: ErrNoColumns}
	}
	for i, row := range samples {
		if len(row) != len(header) {
			return nil, &SchemaError{
				Row: i + 1,
				Err: fmt.Errorf("has %d fields, header has %d", len(row), len(header)),
			}
		}
	}

	idents := NormalizeIdents(header)
	cols := make([]Column, len(header))
	for i, name := range header {
		cols[i] = Column{
			Name:    name,
			Ident:   idents[i],
			Ordinal: i,
			Type:    inferColumn(samples, i, opt),
		}
	}
	return cols, nil
}

func inferColumn(samples [][]string, ordinal int, opt InferOptions) ScalarType {
	if opt.DisableDetection || len(samples) == 0 {
		return Text
	}

	t := Classify(samples[0][ordinal])
	for _, row := range samples[1:] {
		if t == Text {
			break
		}
		t = Widen(t, Classify(row[ordinal]))
	}
	return t
}
