package blobstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
)

// copyConcurrency bounds parallel CopyObject calls during CopyPrefix.
const copyConcurrency = 8

// ListPrefix returns metadata for every object under prefix.
func (c *Client) ListPrefix(ctx context.Context, prefix string) (infos []ObjectInfo, err error) {
	ctx, span := telemetry.StartS3Span(ctx, "ListObjectsV2", c.bucket, prefix)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("ListObjectsV2", start, err) }()

	if err = c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, pageErr := paginator.NextPage(ctx)
		if pageErr != nil {
			telemetry.RecordError(ctx, pageErr)
			err = fmt.Errorf("failed to list prefix %s: %w", prefix, pageErr)
			return nil, err
		}
		for _, obj := range page.Contents {
			info := ObjectInfo{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
				ETag: trimETag(aws.ToString(obj.ETag)),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// DeletePrefix removes every object under prefix in batches of 1000 (the
// DeleteObjects limit). Per-object failures are logged and skipped; the
// returned count is the number of objects actually deleted.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) (deleted int, err error) {
	ctx, span := telemetry.StartS3Span(ctx, "DeletePrefix", c.bucket, prefix)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("DeletePrefix", start, err) }()

	if prefix == "" {
		return 0, fmt.Errorf("refusing to delete empty prefix")
	}

	if err = c.acquire(ctx); err != nil {
		return 0, err
	}
	defer c.release()

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(c.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(deleteBatchSize),
	})

	for paginator.HasMorePages() {
		page, pageErr := paginator.NextPage(ctx)
		if pageErr != nil {
			telemetry.RecordError(ctx, pageErr)
			return deleted, fmt.Errorf("failed to list prefix %s: %w", prefix, pageErr)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}

		out, delErr := c.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if delErr != nil {
			telemetry.RecordError(ctx, delErr)
			return deleted, fmt.Errorf("failed to delete batch under %s: %w", prefix, delErr)
		}

		deleted += len(objects) - len(out.Errors)
		for _, objErr := range out.Errors {
			logger.WarnCtx(ctx, "Failed to delete object",
				"bucket", c.bucket,
				"key", aws.ToString(objErr.Key),
				"code", aws.ToString(objErr.Code),
				"message", aws.ToString(objErr.Message),
			)
		}
	}

	telemetry.SetAttributes(ctx, telemetry.Count(deleted))
	return deleted, nil
}

// CopyPrefix copies every object under fromPrefix to the same relative key
// under toPrefix, skipping keys whose relative path starts with exclude.
// Used for repository rename and fork. Returns the number of objects copied.
func (c *Client) CopyPrefix(ctx context.Context, fromPrefix, toPrefix, exclude string) (copied int, err error) {
	ctx, span := telemetry.StartS3Span(ctx, "CopyPrefix", c.bucket, fromPrefix)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("CopyPrefix", start, err) }()

	if fromPrefix == "" || toPrefix == "" {
		return 0, fmt.Errorf("copy prefix requires both source and destination")
	}

	infos, err := c.ListPrefix(ctx, fromPrefix)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(copyConcurrency)

	results := make(chan struct{}, len(infos))
	for _, info := range infos {
		rel := strings.TrimPrefix(info.Key, fromPrefix)
		rel = strings.TrimPrefix(rel, "/")
		if exclude != "" && strings.HasPrefix(rel, exclude) {
			continue
		}

		target := strings.TrimSuffix(toPrefix, "/") + "/" + rel
		source := info.Key
		g.Go(func() error {
			if copyErr := c.Copy(gctx, source, target); copyErr != nil {
				return fmt.Errorf("failed to copy %s: %w", source, copyErr)
			}
			results <- struct{}{}
			return nil
		})
	}

	err = g.Wait()
	close(results)
	for range results {
		copied++
	}
	if err != nil {
		telemetry.RecordError(ctx, err)
		return copied, err
	}

	telemetry.SetAttributes(ctx, telemetry.Count(copied))
	return copied, nil
}
