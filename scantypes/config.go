package scantypes

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
)

// ClientConfig holds the configuration options for the scan client.
type ClientConfig struct {
	// Region is the AWS region to bind the initial client to.
	Region string

	// Endpoint is a custom S3 endpoint URL, for S3-compatible services
	// or local testing.
	Endpoint string

	// MaxRetries is the transport-level retry count for SDK operations.
	MaxRetries int

	// Timeout applies to individual S3 operations. Zero means no timeout.
	Timeout time.Duration

	// ForcePathStyle switches to path-style URLs, required by most
	// S3-compatible services.
	ForcePathStyle bool

	// CustomAWSConfig overrides the default credential chain loading.
	CustomAWSConfig *aws.Config

	// CustomHTTPClient overrides the SDK's HTTP client.
	CustomHTTPClient *http.Client

	// Logger receives structured scan diagnostics. Nil disables logging.
	Logger *zerolog.Logger

	// SniffWindow is the number of leading decoded bytes examined by the
	// binary-content heuristic. Zero means the default.
	SniffWindow int

	// BinaryThreshold is the non-printable byte ratio above which content
	// is skipped as binary. Zero means the default.
	BinaryThreshold float64
}

// Option is a functional option for configuring the scan client.
type Option func(*ClientConfig)
