package s3grep

import (
	"context"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3svctypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s3tools/s3grep/errors"
	"github.com/s3tools/s3grep/internal/pool"
	"github.com/s3tools/s3grep/internal/s3api"
	"github.com/s3tools/s3grep/internal/testutil"
	"github.com/s3tools/s3grep/progress"
	"github.com/s3tools/s3grep/scantypes"
)

// TestScan_Validation tests request validation failures.
func TestScan_Validation(t *testing.T) {
	client := NewWithClient(&testutil.MockS3Client{})

	tests := []struct {
		name string
		req  *scantypes.ScanRequest
	}{
		{"nil request", nil},
		{"missing bucket", &scantypes.ScanRequest{Pattern: "error"}},
		{"missing pattern", &scantypes.ScanRequest{Bucket: "logs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := client.Scan(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err))
			assert.Nil(t, outcome)
		})
	}
}

// TestScan_EndToEnd tests a representative bucket: plain text, gzip,
// zstandard, a binary blob, and a directory marker.
func TestScan_EndToEnd(t *testing.T) {
	objects := map[string][]byte{
		"app/":           {},
		"app/a.txt":      []byte("ok\nerror: boom\n"),
		"app/b.txt.gz":   testutil.GzipBytes(t, []byte("INFO\nERROR disk full\n")),
		"app/c.log.zst":  testutil.ZstdBytes(t, []byte("nothing here\n")),
		"app/blob.bin":   append([]byte{0x00, 0x01}, []byte("error hidden")...),
		"other/skip.txt": []byte("error outside prefix\n"),
	}
	client := NewWithClient(testutil.NewBucketClient(objects, 2))

	outcome, err := client.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:  "logs",
		Prefix:  "app/",
		Pattern: "error",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), outcome.ObjectsScanned)
	assert.Equal(t, int64(2), outcome.MatchesFound)
	assert.Equal(t, int64(1), outcome.BinarySkipped)
	assert.Empty(t, outcome.Errors)
	assert.Greater(t, outcome.Duration.Nanoseconds(), int64(0))

	require.Len(t, outcome.Matches, 2)
	keys := []string{outcome.Matches[0].Key, outcome.Matches[1].Key}
	sort.Strings(keys)
	assert.Equal(t, []string{"app/a.txt", "app/b.txt.gz"}, keys)
}

// TestScan_LogsBucket tests a mixed plain/gzip bucket with exact line
// numbers on the matches.
func TestScan_LogsBucket(t *testing.T) {
	objects := map[string][]byte{
		"2025/a.txt":    []byte("ok\nerror: boom\n"),
		"2025/b.txt.gz": testutil.GzipBytes(t, []byte("INFO\nERROR disk full\n")),
	}
	client := NewWithClient(testutil.NewBucketClient(objects, 0))

	outcome, err := client.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:      "logs-bucket",
		Prefix:      "2025/",
		Pattern:     "ERROR",
		Concurrency: 4,
		LineNumbers: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), outcome.ObjectsScanned)
	assert.Empty(t, outcome.Errors)
	require.Len(t, outcome.Matches, 2)

	byKey := map[string]scantypes.MatchRecord{}
	for _, m := range outcome.Matches {
		byKey[m.Key] = m
	}
	assert.Equal(t, 2, byKey["2025/a.txt"].LineNum)
	assert.Equal(t, "error: boom", byKey["2025/a.txt"].Line)
	assert.Equal(t, 2, byKey["2025/b.txt.gz"].LineNum)
	assert.Equal(t, "ERROR disk full", byKey["2025/b.txt.gz"].Line)
}

// TestScan_Idempotent tests that scanning the same unchanged bucket twice
// yields identical counters.
func TestScan_Idempotent(t *testing.T) {
	objects := map[string][]byte{
		"a.txt":    []byte("error one\nfine\n"),
		"b.txt.gz": testutil.GzipBytes(t, []byte("error two\nerror three\n")),
	}
	client := NewWithClient(testutil.NewBucketClient(objects, 1))

	req := &scantypes.ScanRequest{Bucket: "logs", Pattern: "error"}

	first, err := client.Scan(context.Background(), req)
	require.NoError(t, err)
	second, err := client.Scan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ObjectsScanned, second.ObjectsScanned)
	assert.Equal(t, first.BytesScanned, second.BytesScanned)
	assert.Equal(t, first.MatchesFound, second.MatchesFound)
	assert.Len(t, second.Matches, len(first.Matches))
}

// TestScan_CrossRegionBucket tests a scan against a bucket living in a
// different region: the fetch is retried once through a rebuilt client
// and the object still yields its matches.
func TestScan_CrossRegionBucket(t *testing.T) {
	objects := map[string][]byte{
		"a.txt": []byte("error found\n"),
	}
	fresh := testutil.NewBucketClient(objects, 0)

	stale := testutil.NewBucketClient(objects, 0)
	stale.GetObjectFunc = func(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return nil, &smithy.GenericAPIError{Code: "PermanentRedirect"}
	}
	stale.GetBucketLocationFunc = func(_ context.Context, _ *s3.GetBucketLocationInput, _ ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
		return &s3.GetBucketLocationOutput{
			LocationConstraint: s3svctypes.BucketLocationConstraintEuWest1,
		}, nil
	}

	factory := func(region string) s3api.S3API {
		if region == "eu-west-1" {
			return fresh
		}
		return stale
	}
	regionClient := pool.NewRegionClient(factory, "us-east-1", zerolog.Nop())
	client := NewWithClient(regionClient)

	outcome, err := client.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:  "logs",
		Pattern: "error",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), outcome.MatchesFound)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, int64(2), regionClient.ClientsCreated())
	assert.Equal(t, "eu-west-1", regionClient.Region())
}

// TestScan_NoMatches tests a clean scan with nothing found.
func TestScan_NoMatches(t *testing.T) {
	objects := map[string][]byte{
		"a.txt": []byte("all quiet\n"),
	}
	client := NewWithClient(testutil.NewBucketClient(objects, 0))

	outcome, err := client.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:  "logs",
		Pattern: "error",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), outcome.MatchesFound)
	assert.Equal(t, int64(1), outcome.ObjectsScanned)
	assert.Empty(t, outcome.Matches)
}

// TestScan_CaseSensitivity tests both matching modes over the same data.
func TestScan_CaseSensitivity(t *testing.T) {
	objects := map[string][]byte{
		"a.txt": []byte("ERROR upper\nerror lower\n"),
	}
	client := NewWithClient(testutil.NewBucketClient(objects, 0))

	insensitive, err := client.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:  "logs",
		Pattern: "error",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), insensitive.MatchesFound)

	sensitive, err := client.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:        "logs",
		Pattern:       "error",
		CaseSensitive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sensitive.MatchesFound)
}

// TestScan_ExternalAggregator tests that a caller-supplied aggregator is
// the one the scan reports into.
func TestScan_ExternalAggregator(t *testing.T) {
	objects := map[string][]byte{
		"a.txt": []byte("error\n"),
	}
	client := NewWithClient(testutil.NewBucketClient(objects, 0))

	agg := progress.New()
	outcome, err := client.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:  "logs",
		Pattern: "error",
	}, WithAggregator(agg))
	require.NoError(t, err)

	assert.Equal(t, outcome.MatchesFound, agg.Snapshot().MatchesFound)
	assert.Equal(t, int64(1), agg.Snapshot().ObjectsScanned)
}

// TestScan_MatchFunc tests match streaming alongside the final outcome.
func TestScan_MatchFunc(t *testing.T) {
	objects := map[string][]byte{
		"a.txt": []byte("error one\nerror two\n"),
	}
	client := NewWithClient(testutil.NewBucketClient(objects, 0))

	var streamed []scantypes.MatchRecord
	outcome, err := client.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:  "logs",
		Pattern: "error",
	}, WithMatchFunc(func(rec scantypes.MatchRecord) {
		streamed = append(streamed, rec)
	}))
	require.NoError(t, err)

	// Single object, so the callback runs from one worker in line order.
	require.Len(t, streamed, 2)
	assert.Equal(t, 1, streamed[0].LineNum)
	assert.Equal(t, 2, streamed[1].LineNum)
	assert.Equal(t, int64(2), outcome.MatchesFound)
}

// TestNewWithClient_Options tests that sniffing options apply to clients
// built over a custom API implementation.
func TestNewWithClient_Options(t *testing.T) {
	objects := map[string][]byte{
		// NUL appears past a 4-byte window, so a small window sees text.
		"a.txt": append([]byte("err\n"), append([]byte{0x00}, []byte("error\n")...)...),
	}

	wide := NewWithClient(testutil.NewBucketClient(objects, 0))
	outcome, err := wide.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:  "logs",
		Pattern: "err",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), outcome.BinarySkipped)

	narrow := NewWithClient(testutil.NewBucketClient(objects, 0), WithSniffWindow(4))
	outcome, err = narrow.Scan(context.Background(), &scantypes.ScanRequest{
		Bucket:  "logs",
		Pattern: "err",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), outcome.BinarySkipped)
	assert.Equal(t, int64(2), outcome.MatchesFound)
}
