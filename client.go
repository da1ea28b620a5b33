package s3grep

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/s3tools/s3grep/errors"
	"github.com/s3tools/s3grep/internal/pool"
	"github.com/s3tools/s3grep/internal/s3api"
	"github.com/s3tools/s3grep/internal/sniff"
	"github.com/s3tools/s3grep/scantypes"
)

// Client runs scans against S3. It is safe for concurrent use; the
// underlying region-aware S3 client is shared across scans and rebuilt
// transparently when a bucket turns out to live in another region.
type Client struct {
	// client is the S3 API surface every operation goes through.
	client s3api.S3API

	// region reports the current client binding when built by New.
	region *pool.RegionClient

	// sniffer applies the binary-content heuristic.
	sniffer *sniff.Classifier

	log zerolog.Logger
}

// New creates a scan client with the provided options.
// It loads AWS credentials using the default credential chain and applies
// the specified configuration options.
//
// Example:
//
//	client, err := s3grep.New(
//	    s3grep.WithRegion("us-west-2"),
//	    s3grep.WithMaxRetries(3),
//	)
func New(opts ...scantypes.Option) (*Client, error) {
	clientCfg := &scantypes.ClientConfig{
		MaxRetries: 3,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	var cfg aws.Config
	var err error

	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	region := clientCfg.Region
	if region == "" {
		region = cfg.Region
	}
	if region == "" {
		region = "us-east-1"
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)

	if clientCfg.Endpoint != "" {
		endpoint := clientCfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if clientCfg.CustomHTTPClient != nil {
		httpClient := clientCfg.CustomHTTPClient
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	} else if clientCfg.Timeout > 0 {
		httpClient := &http.Client{Timeout: clientCfg.Timeout}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	log := zerolog.Nop()
	if clientCfg.Logger != nil {
		log = *clientCfg.Logger
	}

	// The factory rebinds the same configuration to whatever region the
	// redirect handling discovers.
	factory := func(region string) s3api.S3API {
		regionCfg := cfg
		regionCfg.Region = region
		return s3.NewFromConfig(regionCfg, s3Opts...)
	}

	regionClient := pool.NewRegionClient(factory, region, log)

	return &Client{
		client:  regionClient,
		region:  regionClient,
		sniffer: sniff.New(clientCfg.SniffWindow, clientCfg.BinaryThreshold),
		log:     log,
	}, nil
}

// NewWithClient creates a scan client over a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(client s3api.S3API, opts ...scantypes.Option) *Client {
	clientCfg := &scantypes.ClientConfig{}
	for _, opt := range opts {
		opt(clientCfg)
	}

	log := zerolog.Nop()
	if clientCfg.Logger != nil {
		log = *clientCfg.Logger
	}

	return &Client{
		client:  client,
		sniffer: sniff.New(clientCfg.SniffWindow, clientCfg.BinaryThreshold),
		log:     log,
	}
}

// Region returns the AWS region the current S3 client is bound to, or ""
// for clients built with NewWithClient.
func (c *Client) Region() string {
	if c.region == nil {
		return ""
	}
	return c.region.Region()
}
