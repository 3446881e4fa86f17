package blobstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kohakuhub/kohakuhub/internal/telemetry"
)

// MultipartUpload describes an initiated multipart upload with one
// presigned URL per part. Parts are 1-indexed per the S3 protocol.
type MultipartUpload struct {
	UploadID  string    `json:"upload_id"`
	Key       string    `json:"key"`
	PartURLs  []string  `json:"part_urls"`
	PartSize  int64     `json:"part_size"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CompletedPart pairs a part number with the ETag the store returned for it.
type CompletedPart struct {
	PartNumber int32  `json:"part_number"`
	ETag       string `json:"etag"`
}

// CreateMultipart initiates a multipart upload and presigns a PUT URL for
// each of partCount parts. When uploadID is non-empty the existing upload is
// resumed and only the URLs are regenerated.
func (c *Client) CreateMultipart(ctx context.Context, key string, partCount int, partSize int64, ttl time.Duration, uploadID string) (mu *MultipartUpload, err error) {
	ctx, span := telemetry.StartS3Span(ctx, "CreateMultipartUpload", c.bucket, key,
		telemetry.Count(partCount))
	defer span.End()
	start := time.Now()
	defer func() { c.observe("CreateMultipartUpload", start, err) }()

	if partCount < 1 || partCount > 10000 {
		return nil, fmt.Errorf("part count must be between 1 and 10000, got %d", partCount)
	}

	ttl = c.ttlOrDefault(ttl)

	if uploadID == "" {
		if err = c.acquire(ctx); err != nil {
			return nil, err
		}
		out, createErr := c.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
		c.release()
		if createErr != nil {
			telemetry.RecordError(ctx, createErr)
			err = fmt.Errorf("failed to create multipart upload for %s: %w", key, createErr)
			return nil, err
		}
		uploadID = aws.ToString(out.UploadId)
	}

	urls := make([]string, 0, partCount)
	for part := 1; part <= partCount; part++ {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		signed, signErr := c.publicPresign.PresignUploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(c.bucket),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(int32(part)),
		}, s3.WithPresignExpires(ttl))
		if signErr != nil {
			telemetry.RecordError(ctx, signErr)
			err = fmt.Errorf("failed to presign part %d for %s: %w", part, key, signErr)
			return nil, err
		}
		urls = append(urls, signed.URL)
	}

	return &MultipartUpload{
		UploadID:  uploadID,
		Key:       key,
		PartURLs:  urls,
		PartSize:  partSize,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// CompleteMultipart finishes a multipart upload from the parts the client
// uploaded. Returns ErrUploadNotFound when the upload ID is unknown or
// already settled.
func (c *Client) CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) (err error) {
	ctx, span := telemetry.StartS3Span(ctx, "CompleteMultipartUpload", c.bucket, key,
		telemetry.Count(len(parts)))
	defer span.End()
	start := time.Now()
	defer func() { c.observe("CompleteMultipartUpload", start, err) }()

	if len(parts) == 0 {
		return fmt.Errorf("no parts to complete for %s", key)
	}

	// S3 requires parts in ascending order.
	sorted := make([]CompletedPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	completed := make([]types.CompletedPart, len(sorted))
	for i, p := range sorted {
		completed[i] = types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		}
	}

	if err = c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	_, err = c.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		if isNoSuchUploadError(err) {
			return ErrUploadNotFound
		}
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("failed to complete multipart upload for %s: %w", key, err)
	}
	return nil
}

// AbortMultipart cancels an in-flight multipart upload, releasing its
// parts. Aborting an unknown upload is not an error; the store's lifecycle
// policy reaps abandoned uploads anyway.
func (c *Client) AbortMultipart(ctx context.Context, key, uploadID string) (err error) {
	ctx, span := telemetry.StartS3Span(ctx, "AbortMultipartUpload", c.bucket, key)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("AbortMultipartUpload", start, err) }()

	if err = c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	_, err = c.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil && !isNoSuchUploadError(err) {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("failed to abort multipart upload for %s: %w", key, err)
	}
	return nil
}
