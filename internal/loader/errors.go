package loader

import "fmt"

// Hint is the operator advice attached to a failed batch.
const Hint = "rerun with -batch-size 1 to find the exact row, or with -no-auto-detect-types to load every column as text"

// RowArityError reports a data row whose field count differs from the header.
// The batch it would have joined is abandoned without being submitted.
type RowArityError struct {
	// Row is the 1-based data row number (header excluded).
	Row int
	// Line is the source line the record started on, when known.
	Line int
	Want int
	Got  int
	// LastCommitted is the last data row known to be durable.
	LastCommitted int
}

func (e *RowArityError) Error() string {
	loc := fmt.Sprintf("row %d", e.Row)
	if e.Line > 0 {
		loc += fmt.Sprintf(" (line %d)", e.Line)
	}
	return fmt.Sprintf("%s has %d fields, header has %d (last committed row %d)", loc, e.Got, e.Want, e.LastCommitted)
}

// BatchExecutionError reports a batch the store rejected. Nothing from the
// batch is visible; every earlier batch is committed.
type BatchExecutionError struct {
	// FirstRow and LastRow are the 1-based data rows the batch spans.
	FirstRow int
	LastRow  int
	// LastCommitted is FirstRow-1: resume after it.
	LastCommitted int
	// Artifact is the path of the replayable SQL dump, empty if it could not
	// be written (see ArtifactErr).
	Artifact    string
	ArtifactErr error
	Err         error
}

func (e *BatchExecutionError) Error() string {
	msg := fmt.Sprintf("batch rows %d-%d failed (last committed row %d", e.FirstRow, e.LastRow, e.LastCommitted)
	switch {
	case e.Artifact != "":
		msg += "; statements dumped to " + e.Artifact
	case e.ArtifactErr != nil:
		msg += "; artifact not written: " + e.ArtifactErr.Error()
	}
	return msg + "): " + e.Err.Error()
}

func (e *BatchExecutionError) Unwrap() error { return e.Err }
