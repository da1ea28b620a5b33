// Package errors provides error types and handling for scan operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a scan operation error with context about what failed.
// It wraps the underlying AWS SDK or decode error with the operation,
// bucket, and object key for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "list", "fetch", "decode")
	Op string

	// Bucket is the S3 bucket name (if applicable)
	Bucket string

	// Key is the S3 object key (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3grep.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3grep.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3grep.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3grep.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for the scan failure taxonomy.
// These can be used with errors.Is() for error checking.
var (
	// ErrListFailed indicates that listing objects failed. Listing failure
	// is fatal: the whole scan aborts, since no object list exists.
	ErrListFailed = errors.New("s3grep: listing failed")

	// ErrFetchFailed indicates that fetching one object's bytes failed.
	// This is scoped to the single object; the scan continues.
	ErrFetchFailed = errors.New("s3grep: fetch failed")

	// ErrDecompression indicates that a compressed object's stream was
	// malformed. Scoped to the single object; the scan continues.
	ErrDecompression = errors.New("s3grep: corrupt compressed stream")

	// ErrWrongRegion indicates that the bucket lives in a different region
	// than the client is configured for. The region-aware client handles
	// this transparently with a single retry; it only surfaces when the
	// retry also fails.
	ErrWrongRegion = errors.New("s3grep: bucket in another region")

	// ErrInvalidInput indicates that the provided scan request is invalid.
	ErrInvalidInput = errors.New("s3grep: invalid input")
)

// IsListFailed checks if an error indicates a fatal listing failure.
func IsListFailed(err error) bool {
	return errors.Is(err, ErrListFailed)
}

// IsFetchFailed checks if an error indicates a per-object fetch failure.
func IsFetchFailed(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsDecompression checks if an error indicates a malformed compressed stream.
func IsDecompression(err error) bool {
	return errors.Is(err, ErrDecompression)
}

// IsWrongRegion checks if an error is the region redirect signal.
func IsWrongRegion(err error) bool {
	return errors.Is(err, ErrWrongRegion)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
