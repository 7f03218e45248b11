package report

import (
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/koustreak/tablecompare/internal/errs"
)

// Compressor wraps a writer with a streaming compressor.
type Compressor interface {
	// Name is the compression name used in configuration and as the
	// Content-Encoding of uploads ("" for none).
	Name() string

	// Extension is appended to the file name, dot included ("" for none).
	Extension() string

	NewWriter(w io.Writer) (io.WriteCloser, error)
}

// NewCompressor returns the compressor for name: none, gzip, zstd or lz4.
// Empty means none.
func NewCompressor(name string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return noneCompressor{}, nil
	case "gzip":
		return gzipCompressor{}, nil
	case "zstd":
		return zstdCompressor{}, nil
	case "lz4":
		return lz4Compressor{}, nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported compression type %q", name)
	}
}

type noneCompressor struct{}

func (noneCompressor) Name() string      { return "" }
func (noneCompressor) Extension() string { return "" }

func (noneCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type gzipCompressor struct{}

func (gzipCompressor) Name() string      { return "gzip" }
func (gzipCompressor) Extension() string { return ".gz" }

func (gzipCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.DefaultCompression)
}

type zstdCompressor struct{}

func (zstdCompressor) Name() string      { return "zstd" }
func (zstdCompressor) Extension() string { return ".zst" }

func (zstdCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	// Reports are small; one encoder goroutine is plenty.
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
}

type lz4Compressor struct{}

func (lz4Compressor) Name() string      { return "lz4" }
func (lz4Compressor) Extension() string { return ".lz4" }

func (lz4Compressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
		return nil, err
	}
	return zw, nil
}
