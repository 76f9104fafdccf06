// Package file opens local source files, transparently decompressing them
// when the name ends in a known compression suffix.
package file

import (
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies a stream codec chosen by file suffix.
type Compression string

const (
	None  Compression = ""
	Gzip  Compression = "gzip"
	Bzip2 Compression = "bzip2"
	Zstd  Compression = "zstd"
	XZ    Compression = "xz"
)

// DetectCompression maps a path suffix to its codec. Matching is
// case-insensitive; anything unrecognized is None.
func DetectCompression(path string) Compression {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".gz"):
		return Gzip
	case strings.HasSuffix(p, ".bz2"):
		return Bzip2
	case strings.HasSuffix(p, ".zst"):
		return Zstd
	case strings.HasSuffix(p, ".xz"):
		return XZ
	}
	return None
}

// Local reads a file from the local filesystem.
type Local struct {
	Path string
	// Compression overrides suffix detection when set.
	Compression Compression
}

// NewLocal returns a Local for path with suffix-based codec detection.
func NewLocal(path string) *Local {
	return &Local{Path: path, Compression: DetectCompression(path)}
}

// Open returns the decompressed byte stream. Closing it closes both the
// decoder and the underlying file.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	rc, err := decompress(f, l.Compression)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open source %s: %w", l.Path, err)
	}
	return rc, nil
}

// readCloser pairs a decoder with the closers that must run after it.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func decompress(f *os.File, c Compression) (io.ReadCloser, error) {
	switch c {
	case None:
		return f, nil

	case Gzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &readCloser{Reader: gz, closers: []func() error{gz.Close, f.Close}}, nil

	case Bzip2:
		return &readCloser{Reader: bzip2.NewReader(f), closers: []func() error{f.Close}}, nil

	case Zstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return &readCloser{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
			f.Close,
		}}, nil

	case XZ:
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return &readCloser{Reader: xr, closers: []func() error{f.Close}}, nil
	}
	return nil, fmt.Errorf("unsupported compression %q", string(c))
}
