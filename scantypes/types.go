// Package scantypes defines the shared types for scan operations.
// It exists as a separate package so that the root package and the
// internal packages can exchange these types without import cycles.
package scantypes

import (
	"time"
)

// DefaultConcurrency is the number of concurrent object pipelines used
// when a ScanRequest does not specify one.
const DefaultConcurrency = 8

// ScanRequest is the immutable configuration for one scan.
// It is created once, never mutated, and shared read-only by all workers.
type ScanRequest struct {
	// Bucket is the S3 bucket to search.
	Bucket string

	// Prefix scopes the listing to keys beginning with this string.
	// Empty means the whole bucket.
	Prefix string

	// Pattern is the substring to search for in each line.
	Pattern string

	// CaseSensitive controls whether matching folds case.
	CaseSensitive bool

	// Concurrency is the maximum number of objects fetched and scanned
	// at the same time. Zero or negative means DefaultConcurrency.
	Concurrency int

	// LineNumbers requests 1-indexed line numbers on match records.
	// The scanner always tracks them; this flag is carried for the
	// output sink's benefit.
	LineNumbers bool
}

// WorkerCount returns the effective concurrency ceiling for the request.
func (r *ScanRequest) WorkerCount() int {
	if r.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return r.Concurrency
}

// MatchRecord is one matching line in one object. Immutable once produced;
// a line with multiple occurrences of the pattern yields exactly one record.
type MatchRecord struct {
	// Key is the object the match was found in.
	Key string

	// LineNum is the 1-indexed line number within the decoded content.
	LineNum int

	// Line is the matched line text, without its trailing newline.
	Line string
}

// ObjectError records a per-object failure. The scan continues past these;
// they surface only in the final ScanOutcome.
type ObjectError struct {
	// Key is the object that failed.
	Key string

	// Err is the underlying failure, wrapped with operation context.
	Err error
}

// ProgressSnapshot is a point-in-time view of the scan counters.
// All fields are monotonically non-decreasing over the scan's lifetime.
// Snapshots are eventually consistent: a reader may observe counters
// from slightly different instants.
type ProgressSnapshot struct {
	ObjectsScanned int64
	BytesScanned   int64
	MatchesFound   int64
	ErrorsSeen     int64
	BinarySkipped  int64
}

// ScanOutcome is the terminal summary returned when the worker pool drains.
// It is created once at scan completion and immutable afterward.
type ScanOutcome struct {
	// ObjectsScanned is the number of objects scanned to completion.
	ObjectsScanned int64

	// BytesScanned is the total decoded bytes line-scanned.
	BytesScanned int64

	// MatchesFound is the total number of match records produced.
	MatchesFound int64

	// BinarySkipped is the number of objects skipped as binary content.
	// These are not errors.
	BinarySkipped int64

	// Matches holds every match record. Ordering across objects is not
	// deterministic; within one object line order is preserved.
	Matches []MatchRecord

	// Errors enumerates every per-object failure with its key and cause.
	Errors []ObjectError

	// Duration is how long the scan took.
	Duration time.Duration
}

// MatchFunc receives match records as workers produce them.
// It is called concurrently from multiple workers and must be safe for
// concurrent use.
type MatchFunc func(MatchRecord)
