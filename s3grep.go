package s3grep

import (
	"context"
	"time"

	"github.com/s3tools/s3grep/errors"
	"github.com/s3tools/s3grep/internal/executor"
	"github.com/s3tools/s3grep/progress"
	"github.com/s3tools/s3grep/scantypes"
)

// scanConfig holds per-scan options.
type scanConfig struct {
	agg     *progress.Aggregator
	onMatch scantypes.MatchFunc
}

// ScanOption configures a single Scan call.
type ScanOption func(*scanConfig)

// WithAggregator supplies the aggregator the scan reports into. Callers
// that want live progress poll its Snapshot method while Scan runs.
// Without it, Scan uses a private aggregator visible only through the
// returned outcome.
func WithAggregator(agg *progress.Aggregator) ScanOption {
	return func(c *scanConfig) {
		c.agg = agg
	}
}

// WithMatchFunc streams match records to fn ahead of the final outcome.
// Records for an object are delivered in line order once that object
// finishes scanning cleanly. fn is called concurrently from multiple
// workers and must be safe for concurrent use.
func WithMatchFunc(fn scantypes.MatchFunc) ScanOption {
	return func(c *scanConfig) {
		c.onMatch = fn
	}
}

// Scan searches every object under the request's bucket and prefix for
// the request's pattern, blocking until the scan completes.
//
// Per-object failures (fetch, decompression) are collected in the
// outcome's Errors and do not stop the scan. A listing failure or context
// cancellation aborts the scan with an error and no outcome. Scanning the
// same unchanged bucket twice produces the same outcome, modulo match
// ordering across objects and Duration.
func (c *Client) Scan(
	ctx context.Context,
	req *scantypes.ScanRequest,
	opts ...ScanOption,
) (*scantypes.ScanOutcome, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cfg := &scanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.agg == nil {
		cfg.agg = progress.New()
	}

	c.log.Info().
		Str("bucket", req.Bucket).
		Str("prefix", req.Prefix).
		Int("concurrency", req.WorkerCount()).
		Msg("starting scan")

	start := time.Now()

	exec := executor.New(c.client, c.sniffer, cfg.agg, cfg.onMatch, c.log)
	if err := exec.Run(ctx, req); err != nil {
		return nil, err
	}

	outcome := cfg.agg.Outcome(time.Since(start))

	c.log.Info().
		Int64("objects", outcome.ObjectsScanned).
		Int64("bytes", outcome.BytesScanned).
		Int64("matches", outcome.MatchesFound).
		Int("errors", len(outcome.Errors)).
		Dur("elapsed", outcome.Duration).
		Msg("scan complete")

	return outcome, nil
}

// validateRequest rejects requests that cannot identify a bucket or a
// pattern. An empty pattern would match every line of every object;
// requiring it non-empty keeps that explicit.
func validateRequest(req *scantypes.ScanRequest) error {
	if req == nil {
		return errors.NewError("scan", errors.ErrInvalidInput).
			WithMessage("request is nil")
	}
	if req.Bucket == "" {
		return errors.NewError("scan", errors.ErrInvalidInput).
			WithMessage("bucket is required")
	}
	if req.Pattern == "" {
		return errors.NewError("scan", errors.ErrInvalidInput).
			WithMessage("pattern is required")
	}
	return nil
}
