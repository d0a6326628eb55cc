// Package storage holds the calendar documents for a processing run in an
// object store between upload and expansion.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/samuelstranges/chronos-sync/pkg/retry"
)

const calendarContentType = "text/calendar"

// S3API is the subset of the S3 client the storage layer uses.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Client wraps the object store for calendar blobs.
type Client struct {
	api     S3API
	retryer *retry.Retryer
	logger  *slog.Logger
}

// NewClient creates a storage client over the given S3 API.
func NewClient(api S3API, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		api:     api,
		retryer: retry.NewRetryer(nil, logger),
		logger:  logger,
	}
}

// Clear deletes every object in the bucket and returns how many were
// removed.
func (c *Client) Clear(ctx context.Context, bucket string) (int, error) {
	keys, err := c.listKeys(ctx, bucket)
	if err != nil {
		return 0, fmt.Errorf("failed to list bucket %s: %w", bucket, err)
	}
	if len(keys) == 0 {
		c.logger.Info("Bucket already empty", "bucket", bucket)
		return 0, nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	err = c.retryer.Do(ctx, func() error {
		_, err := c.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear bucket %s: %w", bucket, err)
	}

	c.logger.Info("Cleared bucket", "bucket", bucket, "deleted", len(keys))
	return len(keys), nil
}

// Upload stores one calendar document.
func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte) error {
	err := c.retryer.Do(ctx, func() error {
		_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(calendarContentType),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	c.logger.Info("Uploaded calendar file", "bucket", bucket, "key", key)
	return nil
}

// ListCalendars returns the keys of all .ics objects in the bucket.
func (c *Client) ListCalendars(ctx context.Context, bucket string) ([]string, error) {
	keys, err := c.listKeys(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket %s: %w", bucket, err)
	}

	var calendars []string
	for _, key := range keys {
		if strings.HasSuffix(key, ".ics") {
			calendars = append(calendars, key)
		}
	}
	return calendars, nil
}

// Download fetches one calendar document.
func (c *Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	var data []byte
	err := c.retryer.Do(ctx, func() error {
		out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()

		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	return data, nil
}

// listKeys walks the bucket listing, following pagination.
func (c *Client) listKeys(ctx context.Context, bucket string) ([]string, error) {
	var keys []string
	var continuation *string

	for {
		var out *s3.ListObjectsV2Output
		err := c.retryer.Do(ctx, func() error {
			var err error
			out, err = c.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:            aws.String(bucket),
				ContinuationToken: continuation,
			})
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, obj := range out.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			return keys, nil
		}
		continuation = out.NextContinuationToken
	}
}
