package blobstore

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kohakuhub/kohakuhub/internal/telemetry"
)

// PresignedRequest is a signed URL plus the headers the client must send
// with it. Headers are part of the signature; omitting them fails the
// request at the store.
type PresignedRequest struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Header    map[string]string `json:"header,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// DownloadOptions tune presigned download URLs.
type DownloadOptions struct {
	// TTL overrides the client default when positive.
	TTL time.Duration

	// Filename, when set, makes browsers save the object under this name
	// via a signed Content-Disposition response header.
	Filename string
}

// PresignDownload returns a presigned GET URL built against the public
// endpoint.
func (c *Client) PresignDownload(ctx context.Context, key string, opts DownloadOptions) (req *PresignedRequest, err error) {
	ctx, span := telemetry.StartS3Span(ctx, "PresignGetObject", c.bucket, key)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("PresignGetObject", start, err) }()

	ttl := c.ttlOrDefault(opts.TTL)

	input := &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if opts.Filename != "" {
		input.ResponseContentDisposition = aws.String(
			fmt.Sprintf("attachment; filename=%q", opts.Filename))
	}

	signed, err := c.publicPresign.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to presign download for %s: %w", key, err)
	}

	return &PresignedRequest{
		URL:       signed.URL,
		Method:    signed.Method,
		Header:    flattenHeader(signed.SignedHeader),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// UploadOptions tune presigned upload URLs.
type UploadOptions struct {
	// TTL overrides the client default when positive.
	TTL time.Duration

	// ContentType pins the uploaded content type when set.
	ContentType string

	// SHA256 is the expected content hash in lowercase hex. When set the
	// URL is bound to an x-amz-checksum-sha256 header and the store rejects
	// any payload that does not hash to it.
	SHA256 string
}

// PresignUpload returns a presigned PUT URL. Uploads are signed against the
// public endpoint since the uploading client lives outside the deployment.
func (c *Client) PresignUpload(ctx context.Context, key string, opts UploadOptions) (req *PresignedRequest, err error) {
	ctx, span := telemetry.StartS3Span(ctx, "PresignPutObject", c.bucket, key)
	defer span.End()
	start := time.Now()
	defer func() { c.observe("PresignPutObject", start, err) }()

	ttl := c.ttlOrDefault(opts.TTL)

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	header := map[string]string{}
	if opts.SHA256 != "" {
		checksum, err := HexToChecksumBase64(opts.SHA256)
		if err != nil {
			return nil, err
		}
		input.ChecksumSHA256 = aws.String(checksum)
		header["x-amz-checksum-sha256"] = checksum
	}

	signed, err := c.publicPresign.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}

	for k, v := range flattenHeader(signed.SignedHeader) {
		header[k] = v
	}

	return &PresignedRequest{
		URL:       signed.URL,
		Method:    signed.Method,
		Header:    header,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// HexToChecksumBase64 converts a lowercase-hex SHA-256 into the base64 form
// S3 checksum headers use.
func HexToChecksumBase64(hexDigest string) (string, error) {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil || len(raw) != 32 {
		return "", fmt.Errorf("invalid sha256 hex digest %q", hexDigest)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// flattenHeader collapses signed headers to single values, dropping the
// host header which the HTTP client sets itself.
func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) == 0 || http.CanonicalHeaderKey(k) == "Host" {
			continue
		}
		out[k] = vs[0]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
