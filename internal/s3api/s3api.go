// Package s3api defines the interface for the S3 operations this module
// depends on, to enable testing and mocking.
package s3api

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the narrow capability surface a scan needs: listing keys by
// prefix, streaming object bytes, and discovering a bucket's region.
type S3API interface {
	// GetObject retrieves an object's bytes as a stream
	GetObject(
		ctx context.Context,
		params *s3.GetObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.GetObjectOutput, error)

	// ListObjectsV2 lists one page of objects in a bucket
	ListObjectsV2(
		ctx context.Context,
		params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)

	// GetBucketLocation reports the region a bucket resides in
	GetBucketLocation(
		ctx context.Context,
		params *s3.GetBucketLocationInput,
		optFns ...func(*s3.Options),
	) (*s3.GetBucketLocationOutput, error)
}

// Verify that the AWS S3 client implements our interface
var _ S3API = (*s3.Client)(nil)
