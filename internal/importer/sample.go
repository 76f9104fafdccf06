package importer

import (
	"io"

	"csvtosql/internal/loader"
)

// lineSource is a loader.Source that knows where its last record started.
type lineSource interface {
	loader.Source
	Line() int
}

// sample holds the leading data rows used for inference. They are read
// once and replayed ahead of the stream, so they are loaded too.
type sample struct {
	rows  [][]string
	lines []int
}

func readSample(src lineSource, n int) (sample, error) {
	var s sample
	for len(s.rows) < n {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return s, err
		}
		s.rows = append(s.rows, rec)
		s.lines = append(s.lines, src.Line())
	}
	return s, nil
}

func (s sample) replay(rest lineSource) *replaySource {
	return &replaySource{rows: s.rows, lines: s.lines, rest: rest}
}

// replaySource yields the sampled rows, then the rest of the stream.
type replaySource struct {
	rows  [][]string
	lines []int
	line  int
	rest  lineSource
}

func (r *replaySource) Next() ([]string, error) {
	if len(r.rows) > 0 {
		rec := r.rows[0]
		r.line = r.lines[0]
		r.rows, r.lines = r.rows[1:], r.lines[1:]
		return rec, nil
	}
	rec, err := r.rest.Next()
	if err == nil {
		r.line = r.rest.Line()
	}
	return rec, err
}

func (r *replaySource) Line() int { return r.line }
