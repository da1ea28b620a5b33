// Package executor runs the scan pipeline: a lister goroutine feeding a
// bounded pool of workers that fetch, decode, classify, and line-scan
// objects concurrently.
package executor

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	s3greperrors "github.com/s3tools/s3grep/errors"
	"github.com/s3tools/s3grep/internal/decode"
	"github.com/s3tools/s3grep/internal/lister"
	"github.com/s3tools/s3grep/internal/s3api"
	"github.com/s3tools/s3grep/internal/scan"
	"github.com/s3tools/s3grep/internal/sniff"
	"github.com/s3tools/s3grep/progress"
	"github.com/s3tools/s3grep/scantypes"
)

// readBufferSize is the buffered reader size per in-flight object. It must
// be at least the sniff window so the window can be peeked without
// consuming the stream.
const readBufferSize = 64 * 1024

// Executor coordinates one scan over a bucket.
type Executor struct {
	client  s3api.S3API
	lister  *lister.Lister
	sniffer *sniff.Classifier
	agg     *progress.Aggregator
	onMatch scantypes.MatchFunc
	log     zerolog.Logger
}

// New creates an executor. onMatch may be nil; matches always land in agg
// regardless.
func New(
	client s3api.S3API,
	sniffer *sniff.Classifier,
	agg *progress.Aggregator,
	onMatch scantypes.MatchFunc,
	log zerolog.Logger,
) *Executor {
	return &Executor{
		client:  client,
		lister:  lister.New(client, log),
		sniffer: sniffer,
		agg:     agg,
		onMatch: onMatch,
		log:     log,
	}
}

// Run lists and scans every object under the request's bucket and prefix,
// blocking until the pipeline drains. At most req.WorkerCount() objects
// are in flight at once.
//
// Per-object failures are recorded in the aggregator and do not stop the
// scan. A listing failure or context cancellation aborts the whole run
// and is returned.
func (e *Executor) Run(ctx context.Context, req *scantypes.ScanRequest) error {
	workers := req.WorkerCount()
	matcher := scan.NewMatcher(req.Pattern, req.CaseSensitive)
	keys := make(chan string, workers*2)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.lister.Stream(ctx, req.Bucket, req.Prefix, keys)
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case key, ok := <-keys:
					if !ok {
						return nil
					}
					// Both cases can be ready at once; a key received
					// after cancellation must not be dispatched.
					if ctx.Err() != nil {
						return ctx.Err()
					}
					e.processObject(ctx, req.Bucket, key, matcher)
				}
			}
		})
	}

	return g.Wait()
}

// processObject runs the per-object pipeline. All failures are scoped to
// the object: they are recorded and the worker moves on.
func (e *Executor) processObject(ctx context.Context, bucket, key string, m scan.Matcher) {
	out, err := e.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		e.recordError(key, err)
		return
	}
	defer out.Body.Close()

	rc, err := decode.ForKey(key, out.Body)
	if err != nil {
		e.recordError(key, err)
		return
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, readBufferSize)

	window, err := br.Peek(e.sniffer.Window())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		e.recordError(key, err)
		return
	}

	if res := e.sniffer.Classify(window); res.Binary {
		e.log.Debug().
			Str("key", key).
			Str("mime", res.MIME).
			Msg("skipping binary object")
		e.agg.BinarySkipped()
		return
	}

	// Matches are held back until the object scans to completion: an
	// object that later turns out corrupt contributes no match records.
	sink := &objectSink{key: key, agg: e.agg}
	if _, err := scan.Lines(br, m, sink); err != nil {
		e.recordError(key, err)
		return
	}

	e.agg.ObjectScanned()
	for _, rec := range sink.matches {
		e.agg.AddMatch(rec)
		if e.onMatch != nil {
			e.onMatch(rec)
		}
	}
}

// recordError classifies and records one per-object failure. Context
// cancellation is not an object error; the pool is already shutting down.
func (e *Executor) recordError(key string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	if !isClassified(err) {
		err = s3greperrors.NewError("fetch", s3greperrors.ErrFetchFailed).
			WithKey(key).
			WithMessage(err.Error())
	}

	e.log.Warn().Str("key", key).Err(err).Msg("object failed, continuing scan")
	e.agg.AddError(key, err)
}

// isClassified reports whether err already carries a taxonomy sentinel.
func isClassified(err error) bool {
	return errors.Is(err, s3greperrors.ErrDecompression) ||
		errors.Is(err, s3greperrors.ErrFetchFailed) ||
		errors.Is(err, s3greperrors.ErrWrongRegion)
}

// objectSink streams byte counts to the aggregator as lines are consumed
// and accumulates the object's matches for commit after a clean finish.
type objectSink struct {
	key     string
	agg     *progress.Aggregator
	matches []scantypes.MatchRecord
}

func (s *objectSink) LineScanned(n int64) {
	s.agg.AddBytes(n)
}

func (s *objectSink) Match(lineNum int, line string) {
	s.matches = append(s.matches, scantypes.MatchRecord{Key: s.key, LineNum: lineNum, Line: line})
}
