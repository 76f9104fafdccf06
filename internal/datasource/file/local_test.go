package file

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const payload = "id,name\n1,Widget\n2,Gadget\n"

func writeFile(t *testing.T, name string, encode func(io.Writer) io.WriteCloser) string {
	t.Helper()
	var buf bytes.Buffer
	if encode == nil {
		buf.WriteString(payload)
	} else {
		w := encode(&buf)
		if _, err := io.WriteString(w, payload); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectCompression(t *testing.T) {
	t.Parallel()

	tests := map[string]Compression{
		"a.csv":     None,
		"a.csv.gz":  Gzip,
		"A.CSV.GZ":  Gzip,
		"a.csv.bz2": Bzip2,
		"a.csv.zst": Zstd,
		"a.csv.xz":  XZ,
		"gz":        None,
	}
	for in, want := range tests {
		if got := DetectCompression(in); got != want {
			t.Fatalf("DetectCompression(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestLocal_OpenDecompresses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		file   string
		encode func(io.Writer) io.WriteCloser
	}{
		{"plain", "in.csv", nil},
		{"gzip", "in.csv.gz", func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) }},
		{"zstd", "in.csv.zst", func(w io.Writer) io.WriteCloser {
			enc, err := zstd.NewWriter(w)
			if err != nil {
				t.Fatal(err)
			}
			return enc
		}},
		{"xz", "in.csv.xz", func(w io.Writer) io.WriteCloser {
			xw, err := xz.NewWriter(w)
			if err != nil {
				t.Fatal(err)
			}
			return xw
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, tt.file, tt.encode)

			rc, err := NewLocal(path).Open(context.Background())
			if err != nil {
				t.Fatalf("Open() err=%v", err)
			}
			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("ReadAll() err=%v", err)
			}
			if err := rc.Close(); err != nil {
				t.Fatalf("Close() err=%v", err)
			}
			if string(got) != payload {
				t.Fatalf("content=%q, want %q", got, payload)
			}
		})
	}
}

func TestLocal_OpenErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewLocal(filepath.Join(t.TempDir(), "missing.csv")).Open(context.Background()); err == nil {
		t.Fatalf("Open(missing) err=nil, want error")
	}

	// Plain bytes under a .gz name fail at header parse.
	path := writeFile(t, "fake.csv.gz", nil)
	if _, err := NewLocal(path).Open(context.Background()); err == nil {
		t.Fatalf("Open(fake gzip) err=nil, want error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(path).Open(ctx); err == nil {
		t.Fatalf("Open(canceled) err=nil, want context error")
	}
}
