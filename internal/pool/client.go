// Package pool provides shared resources for concurrent scans: the
// region-aware S3 client handle and reusable scan buffers.
package pool

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	s3greperrors "github.com/s3tools/s3grep/errors"
	"github.com/s3tools/s3grep/internal/s3api"
)

// Factory builds an S3 client bound to the given region.
type Factory func(region string) s3api.S3API

// RegionClient is an atomically swappable S3 client handle.
//
// Every storage operation goes through it. When an operation fails with the
// wrong-region redirect signal, the handle discovers the correct region,
// rebuilds the client bound to it, swaps the handle, and retries the one
// failed operation exactly once. If the retry also fails, the error
// propagates as a normal failure.
//
// The swap is a single atomic store: subsequent callers observe the new
// client immediately, while in-flight operations on the old client complete
// or fail naturally. No lock is held across any network call.
type RegionClient struct {
	factory Factory
	current atomic.Pointer[clientHandle]

	// rebuildMu serializes client rebuilds so a burst of redirected
	// workers produces one replacement client, not one each.
	rebuildMu sync.Mutex

	// created counts factory invocations, including the initial client.
	created atomic.Int64

	log zerolog.Logger
}

// clientHandle pairs a client with the region it is bound to.
type clientHandle struct {
	api    s3api.S3API
	region string
}

// NewRegionClient creates a handle with an initial client for region.
func NewRegionClient(factory Factory, region string, log zerolog.Logger) *RegionClient {
	rc := &RegionClient{
		factory: factory,
		log:     log,
	}
	rc.current.Store(&clientHandle{api: factory(region), region: region})
	rc.created.Add(1)
	return rc
}

// Region returns the region the current client is bound to.
func (rc *RegionClient) Region() string {
	return rc.current.Load().region
}

// ClientsCreated returns how many clients the factory has built so far.
func (rc *RegionClient) ClientsCreated() int64 {
	return rc.created.Load()
}

// GetObject fetches an object, retrying once through a rebuilt client if
// the bucket turns out to live in another region.
func (rc *RegionClient) GetObject(
	ctx context.Context,
	params *s3.GetObjectInput,
	optFns ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	h := rc.current.Load()
	out, err := h.api.GetObject(ctx, params, optFns...)
	if err == nil {
		return out, nil
	}
	region, redirected := redirectRegion(err)
	if !redirected {
		return nil, err
	}
	api, rerr := rc.rebuild(ctx, h, region, aws.ToString(params.Bucket))
	if rerr != nil {
		return nil, rerr
	}
	return api.GetObject(ctx, params, optFns...)
}

// ListObjectsV2 lists a page of objects, with the same single-retry
// redirect handling as GetObject.
func (rc *RegionClient) ListObjectsV2(
	ctx context.Context,
	params *s3.ListObjectsV2Input,
	optFns ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	h := rc.current.Load()
	out, err := h.api.ListObjectsV2(ctx, params, optFns...)
	if err == nil {
		return out, nil
	}
	region, redirected := redirectRegion(err)
	if !redirected {
		return nil, err
	}
	api, rerr := rc.rebuild(ctx, h, region, aws.ToString(params.Bucket))
	if rerr != nil {
		return nil, rerr
	}
	return api.ListObjectsV2(ctx, params, optFns...)
}

// GetBucketLocation reports a bucket's region using the current client.
func (rc *RegionClient) GetBucketLocation(
	ctx context.Context,
	params *s3.GetBucketLocationInput,
	optFns ...func(*s3.Options),
) (*s3.GetBucketLocationOutput, error) {
	return rc.current.Load().api.GetBucketLocation(ctx, params, optFns...)
}

// rebuild replaces the stale client with one bound to region, creating at
// most one replacement no matter how many workers hit the redirect at once.
// When the redirect signal did not carry the region, it is looked up via
// GetBucketLocation on the stale client.
func (rc *RegionClient) rebuild(
	ctx context.Context,
	stale *clientHandle,
	region, bucket string,
) (s3api.S3API, error) {
	rc.rebuildMu.Lock()
	defer rc.rebuildMu.Unlock()

	// Another worker may have already swapped the handle.
	if cur := rc.current.Load(); cur != stale {
		return cur.api, nil
	}

	if region == "" {
		loc, err := stale.api.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
			Bucket: aws.String(bucket),
		})
		if err != nil {
			return nil, s3greperrors.NewError("region", s3greperrors.ErrWrongRegion).
				WithBucket(bucket).
				WithMessage(err.Error())
		}
		region = string(loc.LocationConstraint)
		if region == "" {
			// An empty location constraint means us-east-1.
			region = "us-east-1"
		}
	}

	rc.log.Info().
		Str("bucket", bucket).
		Str("from", stale.region).
		Str("to", region).
		Msg("bucket in another region, rebuilding client")

	h := &clientHandle{api: rc.factory(region), region: region}
	rc.created.Add(1)
	rc.current.Store(h)
	return h.api, nil
}

// redirectRegion reports whether err is the wrong-region redirect signal
// and, when the response named it, the region the bucket resides in.
func redirectRegion(err error) (string, bool) {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.Response != nil {
		if region := respErr.Response.Header.Get("x-amz-bucket-region"); region != "" {
			return region, true
		}
		if respErr.HTTPStatusCode() == http.StatusMovedPermanently {
			return "", true
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PermanentRedirect", "AuthorizationHeaderMalformed", "IllegalLocationConstraintException":
			return "", true
		}
	}
	return "", false
}

// Verify the handle is a drop-in replacement for the raw client.
var _ s3api.S3API = (*RegionClient)(nil)
