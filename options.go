package s3grep

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"

	"github.com/s3tools/s3grep/scantypes"
)

// WithRegion sets the AWS region the initial S3 client is bound to.
// If not specified, the region comes from the default credential chain.
// A bucket that turns out to live elsewhere is handled transparently by
// the region redirect logic.
func WithRegion(region string) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with MinIO.
func WithEndpoint(endpoint string) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithMaxRetries sets the maximum number of transport-level retry
// attempts for SDK operations. Default is 3.
func WithMaxRetries(maxRetries int) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual S3 operations.
// Default is no timeout (0).
func WithTimeout(timeout time.Duration) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted
// style. Required for most S3-compatible services.
func WithForcePathStyle(forcePathStyle bool) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig provides a custom AWS configuration, overriding the
// default credential chain loading.
func WithAWSConfig(config *aws.Config) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithHTTPClient provides a custom HTTP client for the SDK, giving full
// control over proxies, TLS, and connection pooling.
func WithHTTPClient(client *http.Client) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithLogger routes structured scan diagnostics to the given logger.
// Without it, logging is disabled.
func WithLogger(log zerolog.Logger) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		c.Logger = &log
	}
}

// WithSniffWindow sets how many leading decoded bytes the binary-content
// heuristic examines per object. Default is 1024.
func WithSniffWindow(window int) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		if window > 0 {
			c.SniffWindow = window
		}
	}
}

// WithBinaryThreshold sets the non-printable byte ratio above which an
// object is skipped as binary. Default is 0.30.
func WithBinaryThreshold(threshold float64) scantypes.Option {
	return func(c *scantypes.ClientConfig) {
		if threshold > 0 {
			c.BinaryThreshold = threshold
		}
	}
}
