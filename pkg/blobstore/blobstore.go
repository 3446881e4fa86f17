// Package blobstore implements the S3 adapter for repository content.
//
// All repository bytes live in an S3-compatible bucket: branch-tracked files
// under "{canonicalRepo}/{path}" and LFS objects under a sharded "lfs/"
// prefix. The hub never streams object payloads through its own process
// when it can avoid it; uploads and downloads happen against presigned URLs
// so request handlers only exchange metadata.
//
// Two endpoints may be configured: the internal one the server itself talks
// to, and a public one baked into presigned download URLs handed to clients
// outside the deployment network. When no public endpoint is set the
// internal one serves both roles.
//
// Thread Safety: the Client is safe for concurrent use. A weighted semaphore
// bounds the number of in-flight S3 calls so a burst of requests cannot
// exhaust the connection pool.
package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultPresignTTL is the lifetime of presigned URLs when the caller
	// does not specify one.
	DefaultPresignTTL = time.Hour

	// deleteBatchSize is the S3 DeleteObjects limit.
	deleteBatchSize = 1000

	// DefaultMaxConcurrent bounds in-flight S3 calls per client.
	DefaultMaxConcurrent = 64
)

// Metrics provides observability for blob store operations.
//
// This interface is optional - pass nil to disable metrics collection with
// zero overhead.
type Metrics interface {
	// ObserveOperation records a completed S3 call with its duration and
	// outcome.
	ObserveOperation(operation string, duration time.Duration, err error)

	// AddBytesTransferred records payload bytes moved through the hub
	// process itself (inline puts and pack-synthesis gets; presigned
	// transfers never pass through here).
	AddBytesTransferred(operation, direction string, bytes int64)
}

// Config contains configuration for the blob store client.
type Config struct {
	// Endpoint is the S3 endpoint the server talks to. Empty means AWS.
	Endpoint string

	// PublicEndpoint is the endpoint baked into presigned download URLs.
	// Falls back to Endpoint when empty.
	PublicEndpoint string

	// Region is the S3 region.
	Region string

	// Bucket is the bucket holding all repository content.
	Bucket string

	// AccessKey and SecretKey are static credentials. Both empty means the
	// default AWS credential chain.
	AccessKey string
	SecretKey string

	// ForcePathStyle selects path-style addressing, required by MinIO and
	// most self-hosted S3 implementations.
	ForcePathStyle bool

	// PresignTTL is the default presigned URL lifetime (default: 1h).
	PresignTTL time.Duration

	// MaxConcurrent bounds in-flight S3 calls (default: 64).
	MaxConcurrent int64

	// MaxRetries is the maximum number of retry attempts for transient
	// errors (default: 3).
	MaxRetries uint

	// InitialBackoff is the backoff before the first retry (default: 100ms).
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff (default: 2s).
	MaxBackoff time.Duration

	// BackoffMultiplier grows the backoff per attempt (default: 2.0).
	BackoffMultiplier float64

	// Metrics is an optional metrics collector.
	Metrics Metrics
}

// retryConfig holds retry settings for S3 operations.
type retryConfig struct {
	maxRetries        uint
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
}

// Client is the S3 adapter used by every content-plane component.
type Client struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	publicPresign *s3.PresignClient
	bucket        string
	presignTTL    time.Duration
	sem           *semaphore.Weighted
	retry         retryConfig
	metrics       Metrics
}

// New creates a blob store client and verifies bucket access.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	internal, err := newS3Client(ctx, cfg, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to build S3 client: %w", err)
	}

	// The public presigner signs against the endpoint clients can reach.
	// Signatures cover the host, so the internal client cannot be reused.
	publicClient := internal
	if cfg.PublicEndpoint != "" && cfg.PublicEndpoint != cfg.Endpoint {
		publicClient, err = newS3Client(ctx, cfg, cfg.PublicEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to build public S3 client: %w", err)
		}
	}

	if _, err := internal.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	presignTTL := cfg.PresignTTL
	if presignTTL <= 0 {
		presignTTL = DefaultPresignTTL
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	retry := retryConfig{
		maxRetries:        cfg.MaxRetries,
		initialBackoff:    cfg.InitialBackoff,
		maxBackoff:        cfg.MaxBackoff,
		backoffMultiplier: cfg.BackoffMultiplier,
	}
	if retry.maxRetries == 0 {
		retry.maxRetries = 3
	}
	if retry.initialBackoff == 0 {
		retry.initialBackoff = 100 * time.Millisecond
	}
	if retry.maxBackoff == 0 {
		retry.maxBackoff = 2 * time.Second
	}
	if retry.backoffMultiplier == 0 {
		retry.backoffMultiplier = 2.0
	}

	return &Client{
		client:        internal,
		presignClient: s3.NewPresignClient(internal),
		publicPresign: s3.NewPresignClient(publicClient),
		bucket:        cfg.Bucket,
		presignTTL:    presignTTL,
		sem:           semaphore.NewWeighted(maxConcurrent),
		retry:         retry,
		metrics:       cfg.Metrics,
	}, nil
}

// newS3Client builds an S3 client against the given endpoint.
func newS3Client(ctx context.Context, cfg Config, endpoint string) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// acquire blocks until a semaphore slot is available or ctx is done.
func (c *Client) acquire(ctx context.Context) error {
	return c.sem.Acquire(ctx, 1)
}

// release returns a semaphore slot.
func (c *Client) release() {
	c.sem.Release(1)
}

// observe reports one completed operation to the metrics collector.
func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.ObserveOperation(operation, time.Since(start), err)
	}
}

// ttlOrDefault applies the client default when the caller passes zero.
func (c *Client) ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return c.presignTTL
	}
	return ttl
}

// withRetry runs fn, retrying transient failures with exponential backoff.
// Context cancellation aborts between attempts.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := uint(0); ; attempt++ {
		err = fn()
		if err == nil || !isRetryableError(err) || attempt >= c.retry.maxRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.calculateBackoff(int(attempt))):
		}
	}
}
