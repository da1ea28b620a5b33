// Package decode turns a raw object byte stream into scannable content.
//
// The decision is driven by the key suffix: recognized compressed-file
// suffixes get a streaming decompressor layered over the raw stream,
// everything else passes through unchanged. Decoding is incremental;
// the object is never buffered whole.
package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	s3greperrors "github.com/s3tools/s3grep/errors"
)

// opener wraps a raw stream in a streaming decompressor.
type opener func(io.Reader) (io.ReadCloser, error)

// suffixes maps recognized compressed-file suffixes to their decompressor.
var suffixes = map[string]opener{
	".gz":   openGzip,
	".zst":  openZstd,
	".zstd": openZstd,
}

// Compressed reports whether key names a recognized compressed format.
func Compressed(key string) bool {
	return suffixFor(key) != ""
}

func suffixFor(key string) string {
	for suffix := range suffixes {
		if strings.HasSuffix(key, suffix) {
			return suffix
		}
	}
	return ""
}

// ForKey returns the decoded content stream for one object. For compressed
// keys the returned reader decompresses incrementally and classifies
// malformed input as ErrDecompression; for everything else the raw stream
// is passed through as-is.
//
// A malformed header fails here; corruption deeper in the stream surfaces
// from Read. Either way the failure is scoped to this one object.
func ForKey(key string, r io.Reader) (io.ReadCloser, error) {
	suffix := suffixFor(key)
	if suffix == "" {
		return io.NopCloser(r), nil
	}

	rc, err := suffixes[suffix](r)
	if err != nil {
		return nil, s3greperrors.NewError("decode", s3greperrors.ErrDecompression).
			WithKey(key).
			WithMessage(err.Error())
	}
	return &decodeReader{rc: rc, key: key}, nil
}

func openGzip(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zr, nil
}

func openZstd(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return zr.IOReadCloser(), nil
}

// decodeReader classifies read failures from a decompressing stream.
// Once bytes pass through the decompressor, a truncated transfer and a
// corrupt stream are indistinguishable; both are reported as
// ErrDecompression. Context cancellation passes through untouched.
type decodeReader struct {
	rc  io.ReadCloser
	key string
}

func (d *decodeReader) Read(p []byte) (int, error) {
	n, err := d.rc.Read(p)
	if err == nil || errors.Is(err, io.EOF) {
		return n, err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return n, err
	}
	return n, fmt.Errorf("%w: %v", s3greperrors.ErrDecompression, err)
}

func (d *decodeReader) Close() error {
	return d.rc.Close()
}
