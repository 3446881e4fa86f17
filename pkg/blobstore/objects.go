package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kohakuhub/kohakuhub/internal/telemetry"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Head returns object metadata.
// Returns ErrObjectNotFound if the key does not exist.
func (c *Client) Head(ctx context.Context, key string) (info *ObjectInfo, err error) {
	ctx, span := telemetry.StartS3Span(ctx, "HeadObject", c.bucket, key)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("HeadObject", start, err) }()

	if err = c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	var out *s3.HeadObjectOutput
	err = c.withRetry(ctx, func() error {
		var headErr error
		out, headErr = c.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
		return headErr
	})
	if err != nil {
		if isNotFoundError(err) {
			telemetry.RecordError(ctx, ErrObjectNotFound)
			return nil, ErrObjectNotFound
		}
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to head %s: %w", key, err)
	}

	return headOutputInfo(key, out), nil
}

// Exists reports whether the key is present in the bucket.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Head(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrObjectNotFound) {
		return false, nil
	}
	return false, err
}

// Get opens the object for reading. The caller must close the reader.
// Returns ErrObjectNotFound if the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (rc io.ReadCloser, info *ObjectInfo, err error) {
	ctx, span := telemetry.StartS3Span(ctx, "GetObject", c.bucket, key)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("GetObject", start, err) }()

	if err = c.acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer c.release()

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil, ErrObjectNotFound
		}
		telemetry.RecordError(ctx, err)
		return nil, nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	info = &ObjectInfo{
		Key:  key,
		Size: aws.ToInt64(out.ContentLength),
		ETag: trimETag(aws.ToString(out.ETag)),
	}
	if out.ContentType != nil {
		info.ContentType = *out.ContentType
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	if c.metrics != nil {
		c.metrics.AddBytesTransferred("GetObject", "read", info.Size)
	}
	return out.Body, info, nil
}

// GetBytes reads the whole object into memory. Intended for small blobs
// (pack synthesis, pointer files); large payloads move via presigned URLs.
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	body, _, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Put writes an object. Used for inline commit payloads; anything the
// client can upload itself goes through PresignUpload instead.
func (c *Client) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (err error) {
	ctx, span := telemetry.StartS3Span(ctx, "PutObject", c.bucket, key, telemetry.Size(size))
	defer span.End()
	start := time.Now()
	defer func() { c.observe("PutObject", start, err) }()

	if err = c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err = c.client.PutObject(ctx, input); err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	if c.metrics != nil {
		c.metrics.AddBytesTransferred("PutObject", "write", size)
	}
	return nil
}

// Delete removes a single object. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) (err error) {
	ctx, span := telemetry.StartS3Span(ctx, "DeleteObject", c.bucket, key)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("DeleteObject", start, err) }()

	if err = c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	err = c.withRetry(ctx, func() error {
		_, delErr := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
		return delErr
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Copy duplicates an object within the bucket.
func (c *Client) Copy(ctx context.Context, fromKey, toKey string) (err error) {
	ctx, span := telemetry.StartS3Span(ctx, "CopyObject", c.bucket, toKey)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("CopyObject", start, err) }()

	if err = c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	err = c.withRetry(ctx, func() error {
		_, copyErr := c.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(c.bucket),
			Key:        aws.String(toKey),
			CopySource: aws.String(c.bucket + "/" + fromKey),
		})
		return copyErr
	})
	if err != nil {
		if isNotFoundError(err) {
			return ErrObjectNotFound
		}
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("failed to copy %s to %s: %w", fromKey, toKey, err)
	}
	return nil
}

// headOutputInfo converts a HeadObject response.
func headOutputInfo(key string, out *s3.HeadObjectOutput) *ObjectInfo {
	info := &ObjectInfo{
		Key:  key,
		Size: aws.ToInt64(out.ContentLength),
		ETag: trimETag(aws.ToString(out.ETag)),
	}
	if out.ContentType != nil {
		info.ContentType = *out.ContentType
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return info
}

// trimETag strips the quotes S3 wraps around ETag values.
func trimETag(etag string) string {
	if len(etag) >= 2 && etag[0] == '"' && etag[len(etag)-1] == '"' {
		return etag[1 : len(etag)-1]
	}
	return etag
}
