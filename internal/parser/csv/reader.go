// Package csv reads delimited text into positional string rows.
//
// The Reader decodes the byte stream (BOM aware, with optional legacy
// single-byte encodings), splits records with encoding/csv, and reports
// every malformed record as a *SourceReadError carrying its source line.
// It never checks record width: deciding what a short or long row means is
// left to the caller.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"csvtosql/internal/config"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned by Header when the input has no records at all.
var ErrNoHeader = errors.New("csv: input has no header row")

// SourceReadError reports a record that could not be read from the source.
type SourceReadError struct {
	// Line is the 1-based source line where the failing record starts, or 0
	// when the failure is not tied to a line (I/O errors).
	Line int
	Err  error
}

func (e *SourceReadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("read source: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("read source: %v", e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// Reader yields the header and then one data row per Next call.
type Reader struct {
	cr   *csv.Reader
	trim bool

	header     []string
	headerRead bool
	line       int
	records    int
}

// NewReader builds a Reader over r.
//
// Options:
//   - comma (string, default ","): field delimiter, "\t" or "tab" for TSV
//   - lazy_quotes (bool): accept bare quotes inside fields
//   - trim_space (bool): trim surrounding whitespace from every field
//   - encoding (string, default "utf-8"): see Decoder
func NewReader(r io.Reader, opt config.Options) (*Reader, error) {
	dec, err := Decoder(opt.String("encoding", ""))
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, dec.NewDecoder()))
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1

	return &Reader{cr: cr, trim: opt.Bool("trim_space", false)}, nil
}

// Decoder returns the text encoding for name. UTF-8 and UTF-16 inputs honor
// a leading byte order mark; UTF-8 is assumed when name is empty.
func Decoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return bomOverride{unicode.UTF8}, nil
	case "utf-16":
		return bomOverride{unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)}, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252":
		return charmap.Windows1252, nil
	case "windows-1250":
		return charmap.Windows1250, nil
	}
	return nil, fmt.Errorf("csv: unsupported encoding %q", name)
}

// bomOverride switches to whatever encoding a leading BOM announces and
// strips the mark. Without a BOM it falls back to the wrapped encoding.
type bomOverride struct {
	encoding.Encoding
}

func (b bomOverride) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: unicode.BOMOverride(b.Encoding.NewDecoder())}
}

// Header returns the first record. It is read once and cached.
func (r *Reader) Header() ([]string, error) {
	if r.headerRead {
		return r.header, nil
	}
	rec, err := r.read()
	if err == io.EOF {
		return nil, &SourceReadError{Err: ErrNoHeader}
	}
	if err != nil {
		return nil, err
	}
	r.header = rec
	r.headerRead = true
	return r.header, nil
}

// Next returns the next data row, io.EOF once the input is exhausted, or a
// *SourceReadError. The returned slice is owned by the caller.
func (r *Reader) Next() ([]string, error) {
	if !r.headerRead {
		if _, err := r.Header(); err != nil {
			return nil, err
		}
	}
	return r.read()
}

// Line is the source line where the most recently returned record started.
func (r *Reader) Line() int { return r.line }

// Records counts every record returned so far, the header included.
func (r *Reader) Records() int { return r.records }

func (r *Reader) read() ([]string, error) {
	rec, err := r.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &SourceReadError{Line: pe.StartLine, Err: pe.Err}
		}
		return nil, &SourceReadError{Err: err}
	}

	r.line, _ = r.cr.FieldPos(0)
	r.records++
	if r.trim {
		for i, v := range rec {
			rec[i] = strings.TrimSpace(v)
		}
	}
	return rec, nil
}
