package lister

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3greperrors "github.com/s3tools/s3grep/errors"
	"github.com/s3tools/s3grep/internal/testutil"
)

func collect(t *testing.T, l *Lister, bucket, prefix string) ([]string, error) {
	t.Helper()
	keys := make(chan string, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Stream(context.Background(), bucket, prefix, keys)
	}()

	var got []string
	for k := range keys {
		got = append(got, k)
	}
	return got, <-errCh
}

// TestLister_StreamsAcrossPages tests that all keys arrive even when the
// listing spans several pages.
func TestLister_StreamsAcrossPages(t *testing.T) {
	objects := map[string][]byte{
		"logs/a.txt": []byte("a"),
		"logs/b.txt": []byte("b"),
		"logs/c.txt": []byte("c"),
		"logs/d.txt": []byte("d"),
		"logs/e.txt": []byte("e"),
	}
	l := New(testutil.NewBucketClient(objects, 2), zerolog.Nop())

	got, err := collect(t, l, "logs", "logs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"logs/a.txt", "logs/b.txt", "logs/c.txt", "logs/d.txt", "logs/e.txt"}, got)
}

// TestLister_PrefixScoping tests that only keys under the prefix stream.
func TestLister_PrefixScoping(t *testing.T) {
	objects := map[string][]byte{
		"app/one.log":  []byte("x"),
		"app/two.log":  []byte("y"),
		"other/z.log":  []byte("z"),
		"app2/far.log": []byte("w"),
	}
	l := New(testutil.NewBucketClient(objects, 0), zerolog.Nop())

	got, err := collect(t, l, "logs", "app/")
	require.NoError(t, err)
	assert.Equal(t, []string{"app/one.log", "app/two.log"}, got)
}

// TestLister_SkipsDirectoryMarkers tests that zero-byte folder keys are
// never dispatched.
func TestLister_SkipsDirectoryMarkers(t *testing.T) {
	objects := map[string][]byte{
		"logs/":      {},
		"logs/a.txt": []byte("a"),
		"logs/sub/":  {},
		"logs/sub/b": []byte("b"),
	}
	l := New(testutil.NewBucketClient(objects, 0), zerolog.Nop())

	got, err := collect(t, l, "logs", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"logs/a.txt", "logs/sub/b"}, got)
}

// TestLister_PageFailure tests that a listing failure aborts with the
// fatal sentinel and still closes the channel.
func TestLister_PageFailure(t *testing.T) {
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return nil, errors.New("access denied")
		},
	}
	l := New(mock, zerolog.Nop())

	got, err := collect(t, l, "logs", "")
	require.Error(t, err)
	assert.True(t, s3greperrors.IsListFailed(err))
	assert.Empty(t, got)
}

// TestLister_CancelledPageFetch tests that a page fetch failing because
// the caller cancelled surfaces as plain cancellation, not as a listing
// failure.
func TestLister_CancelledPageFetch(t *testing.T) {
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(ctx context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			// The SDK reports the cancelled context wrapped in its own error.
			return nil, fmt.Errorf("operation error S3: ListObjectsV2: %w", ctx.Err())
		},
	}
	l := New(mock, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	keys := make(chan string, 1)
	err := l.Stream(ctx, "logs", "", keys)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, s3greperrors.IsListFailed(err))
}

// TestLister_ContextCancellation tests that a cancelled context stops the
// listing and closes the channel.
func TestLister_ContextCancellation(t *testing.T) {
	objects := map[string][]byte{
		"logs/a.txt": []byte("a"),
		"logs/b.txt": []byte("b"),
	}
	l := New(testutil.NewBucketClient(objects, 1), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	keys := make(chan string)
	err := l.Stream(ctx, "logs", "", keys)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, open := <-keys
	assert.False(t, open)
}
