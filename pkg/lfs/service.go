// Package lfs implements the Git LFS batch API over the blob store:
// dedup-aware presigned uploads and downloads, multipart transfers for
// large objects, upload verification and version-window garbage
// collection.
package lfs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
)

// Defaults for the transfer geometry.
const (
	DefaultMultipartThreshold = 5 << 30  // 5 GiB, the single-PUT ceiling
	DefaultPartSize           = 64 << 20 // 64 MiB
	DefaultPresignTTL         = time.Hour
	DefaultKeepVersions       = 5
)

// Errors surfaced by verify.
var (
	// ErrObjectMissing means the client claimed an upload that never
	// arrived in the blob store.
	ErrObjectMissing = errors.New("lfs object not found in storage")

	// ErrSizeMismatch means the stored object does not match the
	// declared size.
	ErrSizeMismatch = errors.New("lfs object size mismatch")
)

// Blobs is the slice of the blob store the LFS service drives.
type Blobs interface {
	Exists(ctx context.Context, key string) (bool, error)
	Head(ctx context.Context, key string) (*blobstore.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	PresignDownload(ctx context.Context, key string, opts blobstore.DownloadOptions) (*blobstore.PresignedRequest, error)
	PresignUpload(ctx context.Context, key string, opts blobstore.UploadOptions) (*blobstore.PresignedRequest, error)
	CreateMultipart(ctx context.Context, key string, partCount int, partSize int64, ttl time.Duration, uploadID string) (*blobstore.MultipartUpload, error)
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []blobstore.CompletedPart) error
	AbortMultipart(ctx context.Context, key, uploadID string) error
}

// Quotas is the slice of the quota engine the LFS service drives.
type Quotas interface {
	Reserve(ctx context.Context, namespace, visibility, repoID, oid string, size int64) (string, error)
	Release(ctx context.Context, repoID, oid string) error
}

// Metrics receives LFS transfer observations. All methods must accept a
// nil receiver being absent; the service checks for nil before calling.
type Metrics interface {
	ObserveBatch(operation string, objects, dedup int)
	ObserveVerify(ok bool)
	AddGCReclaimed(objects int, bytes int64)
}

// Config tunes the LFS service.
type Config struct {
	// BaseURL is the externally reachable server URL used to build
	// verify and multipart-complete hrefs.
	BaseURL string

	// MultipartThreshold is the object size above which uploads switch
	// to multipart.
	MultipartThreshold int64

	// PartSize is the multipart part size.
	PartSize int64

	// PresignTTL bounds the life of issued URLs.
	PresignTTL time.Duration

	// KeepVersions is the server default version window for GC.
	KeepVersions int

	// Metrics is optional.
	Metrics Metrics
}

// Service implements LFS batch, verify and GC against one blob store.
type Service struct {
	store  store.Store
	blobs  Blobs
	quotas Quotas
	cfg    Config
}

// New creates an LFS service. Zero config fields get defaults.
func New(s store.Store, blobs Blobs, quotas Quotas, cfg Config) *Service {
	if cfg.MultipartThreshold <= 0 {
		cfg.MultipartThreshold = DefaultMultipartThreshold
	}
	if cfg.PartSize <= 0 {
		cfg.PartSize = DefaultPartSize
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = DefaultPresignTTL
	}
	if cfg.KeepVersions <= 0 {
		cfg.KeepVersions = DefaultKeepVersions
	}
	return &Service{store: s, blobs: blobs, quotas: quotas, cfg: cfg}
}

// Verify confirms an upload announced by a batch response: the object
// must exist with the declared size. Success records the object in the
// repo's history; either outcome releases the quota reservation taken at
// batch time.
func (s *Service) Verify(ctx context.Context, repo *models.Repository, oid string, size int64) error {
	ctx, span := telemetry.StartSpan(ctx, "lfs.verify")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.OID(oid), telemetry.Size(size))

	if !ValidOID(oid) {
		return fmt.Errorf("%w: malformed oid %q", models.ErrValidation, oid)
	}

	defer func() {
		if err := s.quotas.Release(ctx, repo.ID, oid); err != nil {
			logger.WarnCtx(ctx, "Failed to release reservation", "oid", oid, "error", err)
		}
	}()

	info, err := s.blobs.Head(ctx, KeyForOID(oid))
	if err != nil {
		if errors.Is(err, blobstore.ErrObjectNotFound) {
			s.observeVerify(false)
			return ErrObjectMissing
		}
		return err
	}
	if info.Size != size {
		s.observeVerify(false)
		return fmt.Errorf("%w: stored %d bytes, declared %d", ErrSizeMismatch, info.Size, size)
	}

	// Idempotent: re-verifying an object refreshes the same row.
	if err := s.store.RecordLFSObject(ctx, repo.ID, oid, "", size); err != nil {
		return err
	}
	s.observeVerify(true)
	return nil
}

// CompleteMultipart finishes the multipart upload announced by a batch
// response for objects above the multipart threshold.
func (s *Service) CompleteMultipart(ctx context.Context, oid, uploadID string, parts []blobstore.CompletedPart) error {
	if !ValidOID(oid) {
		return fmt.Errorf("%w: malformed oid %q", models.ErrValidation, oid)
	}
	return s.blobs.CompleteMultipart(ctx, KeyForOID(oid), uploadID, parts)
}

// AbortMultipart drops an in-flight multipart upload and its reservation.
func (s *Service) AbortMultipart(ctx context.Context, repo *models.Repository, oid, uploadID string) error {
	if err := s.blobs.AbortMultipart(ctx, KeyForOID(oid), uploadID); err != nil {
		return err
	}
	return s.quotas.Release(ctx, repo.ID, oid)
}

func (s *Service) observeVerify(ok bool) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObserveVerify(ok)
	}
}

// keepVersionsFor returns the effective GC window for a repository,
// clamped so the live newest version per path is never collected.
func (s *Service) keepVersionsFor(repo *models.Repository) int {
	keep := s.cfg.KeepVersions
	if repo.LFSKeepVersions != nil {
		keep = *repo.LFSKeepVersions
	}
	if keep < 1 {
		keep = 1
	}
	return keep
}
