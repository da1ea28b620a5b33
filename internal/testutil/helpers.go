// Package testutil provides test helper functions.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// GzipBytes compresses data with gzip, for building compressed fixtures.
func GzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip fixture: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip fixture: %v", err)
	}
	return buf.Bytes()
}

// ZstdBytes compresses data with zstandard, for building compressed fixtures.
func ZstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd fixture: %v", err)
	}
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("zstd fixture: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zstd fixture: %v", err)
	}
	return buf.Bytes()
}

// TruncatedGzip returns a gzip stream cut off mid-body, simulating a
// corrupt or truncated compressed object. The header stays intact so the
// failure surfaces during streaming, not at open.
func TruncatedGzip(t *testing.T, data []byte) []byte {
	t.Helper()
	full := GzipBytes(t, data)
	if len(full) < 12 {
		t.Fatalf("gzip fixture too small to truncate: %d bytes", len(full))
	}
	return full[:len(full)-8]
}

// NewBucketClient builds a mock backed by an in-memory bucket. Listing
// returns keys in lexical order, paginated by pageSize (0 means one
// page). GetObject serves the mapped bytes, or a NoSuchKey error for
// unknown keys.
func NewBucketClient(objects map[string][]byte, pageSize int) *MockS3Client {
	keys := make([]string, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &MockS3Client{
		ListObjectsV2Func: func(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			prefix := aws.ToString(params.Prefix)
			matched := make([]string, 0, len(keys))
			for _, k := range keys {
				if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
					matched = append(matched, k)
				}
			}

			start := 0
			if tok := aws.ToString(params.ContinuationToken); tok != "" {
				n, err := strconv.Atoi(tok)
				if err != nil {
					return nil, fmt.Errorf("bad continuation token %q", tok)
				}
				start = n
			}

			end := len(matched)
			if pageSize > 0 && start+pageSize < end {
				end = start + pageSize
			}

			out := &s3.ListObjectsV2Output{}
			for _, k := range matched[start:end] {
				out.Contents = append(out.Contents, s3ObjectFor(k, int64(len(objects[k]))))
			}
			if end < len(matched) {
				out.IsTruncated = aws.Bool(true)
				out.NextContinuationToken = aws.String(strconv.Itoa(end))
			} else {
				out.IsTruncated = aws.Bool(false)
			}
			return out, nil
		},
		GetObjectFunc: func(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			key := aws.ToString(params.Key)
			data, ok := objects[key]
			if !ok {
				return nil, fmt.Errorf("NoSuchKey: %s", key)
			}
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(bytes.NewReader(data)),
				ContentLength: aws.Int64(int64(len(data))),
			}, nil
		},
	}
}

func s3ObjectFor(key string, size int64) types.Object {
	return types.Object{
		Key:  aws.String(key),
		Size: aws.Int64(size),
	}
}

// Gauge tracks the number of concurrently running operations and the
// highest value that number ever reached. Safe for concurrent use.
type Gauge struct {
	current atomic.Int64
	peak    atomic.Int64
}

// Enter records one operation starting.
func (g *Gauge) Enter() {
	cur := g.current.Add(1)
	for {
		peak := g.peak.Load()
		if cur <= peak || g.peak.CompareAndSwap(peak, cur) {
			return
		}
	}
}

// Exit records one operation finishing.
func (g *Gauge) Exit() {
	g.current.Add(-1)
}

// Peak returns the highest concurrency observed.
func (g *Gauge) Peak() int64 {
	return g.peak.Load()
}
