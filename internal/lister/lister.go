// Package lister enumerates candidate object keys under a prefix.
//
// It streams keys through a channel so that workers begin scanning while
// later pages are still being fetched. The sequence is finite and follows
// the storage service's listing order; it is not restartable after
// exhaustion — a fresh scan re-lists from the start.
package lister

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	s3greperrors "github.com/s3tools/s3grep/errors"
	"github.com/s3tools/s3grep/internal/s3api"
)

// Lister streams object keys for one bucket and prefix.
type Lister struct {
	client s3api.S3API
	log    zerolog.Logger
}

// New creates a new Lister.
func New(client s3api.S3API, log zerolog.Logger) *Lister {
	return &Lister{
		client: client,
		log:    log,
	}
}

// Stream lists all keys under bucket/prefix into keys, closing the channel
// when the listing is exhausted or fails. Directory marker keys (those
// ending in "/") are skipped before dispatch; they carry no scannable
// content.
//
// A page fetch failure aborts the whole scan: the returned error wraps
// ErrListFailed. Context cancellation stops the listing at the next page
// or channel send.
func (l *Lister) Stream(ctx context.Context, bucket, prefix string, keys chan<- string) error {
	defer close(keys)

	paginator := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			// Cancellation is not a listing failure.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return s3greperrors.NewError("list", s3greperrors.ErrListFailed).
				WithBucket(bucket).
				WithMessage(err.Error())
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				l.log.Debug().Str("key", key).Msg("skipping directory marker")
				continue
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case keys <- key:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}
