// Package registry implements the repository lifecycle: create, delete,
// move and visibility changes, coordinated across the control-plane
// database, the branch/commit backend and the blob store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
)

// Backend is the slice of the branch/commit adapter the registry drives.
type Backend interface {
	CreateRepository(ctx context.Context, name, storageNamespace, defaultBranch string) (*lakefs.Repository, error)
	DeleteRepository(ctx context.Context, name string) error
	CreateBranch(ctx context.Context, repo, branch, source string) (string, error)
	GetBranch(ctx context.Context, repo, branch string) (*lakefs.Branch, error)
	ListBranches(ctx context.Context, repo string) ([]lakefs.Branch, error)
	DeleteBranch(ctx context.Context, repo, branch string) error
	Revert(ctx context.Context, repo, branch, ref string) error
	ResetBranch(ctx context.Context, repo, branch string) error
	CherryPick(ctx context.Context, repo, branch, ref string) (*lakefs.Commit, error)
	ListObjects(ctx context.Context, repo, ref string, opts lakefs.ListObjectsOptions) (*lakefs.ObjectList, error)
	ListAllObjects(ctx context.Context, repo, ref, prefix string) ([]lakefs.ObjectStat, error)
	StatObject(ctx context.Context, repo, ref, path string) (*lakefs.ObjectStat, error)
	StageObject(ctx context.Context, repo, branch, path, physicalAddress string, size int64, checksum string) error
	Commit(ctx context.Context, repo, branch string, opts lakefs.CommitOptions) (*lakefs.Commit, error)
	GetCommit(ctx context.Context, repo, commitID string) (*lakefs.Commit, error)
	ResolveRef(ctx context.Context, repo, ref string) (*lakefs.Commit, error)
	ListCommits(ctx context.Context, repo, ref, after string, amount int) (*lakefs.CommitList, error)
}

// Blobs is the slice of the blob store the registry drives.
type Blobs interface {
	CopyPrefix(ctx context.Context, fromPrefix, toPrefix, exclude string) (int, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Quotas is the slice of the quota engine the registry drives.
type Quotas interface {
	Admit(ctx context.Context, namespace, visibility string, delta int64) error
	Apply(ctx context.Context, namespace, visibility string, delta int64) error
	RepoUsage(ctx context.Context, repo *models.Repository) (int64, error)
	MoveVisibility(ctx context.Context, repo *models.Repository, toPrivate bool) error
}

// Service coordinates repository lifecycle operations.
type Service struct {
	store   store.Store
	backend Backend
	blobs   Blobs
	quotas  Quotas
	perms   *auth.Permissions
	bucket  string
}

// New creates a registry service. bucket names the blob store bucket
// backing repository storage namespaces.
func New(s store.Store, backend Backend, blobs Blobs, quotas Quotas, bucket string) *Service {
	return &Service{
		store:   s,
		backend: backend,
		blobs:   blobs,
		quotas:  quotas,
		perms:   auth.NewPermissions(s),
		bucket:  bucket,
	}
}

// Permissions exposes the permission checker sharing this service's store.
func (s *Service) Permissions() *auth.Permissions {
	return s.perms
}

// GetRepo loads a repository row by type and "namespace/name" id.
func (s *Service) GetRepo(ctx context.Context, repoType models.RepoType, fullID string) (*models.Repository, error) {
	return s.store.GetRepo(ctx, repoType, fullID)
}

// canonical returns the backend repository name for a hub repository.
func (s *Service) canonical(repo *models.Repository) string {
	return lakefs.RepoName(repo.RepoType, repo.Namespace, repo.Name)
}

// storageNamespace returns the backend storage location for a canonical
// repository name.
func (s *Service) storageNamespace(canonical string) string {
	return blobstore.S3URI(s.bucket, canonical)
}

// Create creates a repository: a control-plane row and a backend
// repository with the default branch. An empty namespace defaults to the
// caller's own.
func (s *Service) Create(ctx context.Context, user *models.User, repoType models.RepoType, namespace, name string, private bool) (*models.Repository, error) {
	if namespace == "" {
		namespace = user.Username
	}

	ctx, span := telemetry.StartRepoSpan(ctx, "registry.create", string(repoType), namespace+"/"+name)
	defer span.End()

	repo := &models.Repository{
		RepoType:  string(repoType),
		Namespace: namespace,
		Name:      name,
		FullID:    namespace + "/" + name,
		Private:   private,
		OwnerID:   user.ID,
	}
	if err := repo.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrValidation, err)
	}

	ok, err := s.perms.CanCreateIn(ctx, user, namespace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, auth.ErrPermissionDenied
	}
	if _, err := s.store.GetNamespace(ctx, namespace); err != nil {
		return nil, err
	}

	if _, err := s.store.CreateRepo(ctx, repo); err != nil {
		return nil, err
	}

	canonical := s.canonical(repo)
	if _, err := s.backend.CreateRepository(ctx, canonical, s.storageNamespace(canonical), models.DefaultBranch); err != nil {
		// Roll the row back so a later retry is not blocked by the
		// uniqueness constraint.
		if delErr := s.store.DeleteRepo(ctx, repoType, repo.FullID); delErr != nil {
			logger.ErrorCtx(ctx, "Failed to roll back repo row", "repo", repo.FullID, "error", delErr)
		}
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to create backend repository: %w", err)
	}

	logger.InfoCtx(ctx, "Created repository",
		"type", repo.RepoType, "repo", repo.FullID, "private", private)
	return repo, nil
}

// Delete removes a repository everywhere: backend repository, staged
// blobs under its prefix, the control-plane row (with commit log and LFS
// history) and its quota contribution. LFS objects stay; they may be
// shared and are reclaimed by GC.
func (s *Service) Delete(ctx context.Context, user *models.User, repoType models.RepoType, fullID string) error {
	ctx, span := telemetry.StartRepoSpan(ctx, "registry.delete", string(repoType), fullID)
	defer span.End()

	repo, err := s.store.GetRepo(ctx, repoType, fullID)
	if err != nil {
		return err
	}
	ok, err := s.perms.CanAdminRepo(ctx, user, repo)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrPermissionDenied
	}

	usage, err := s.quotas.RepoUsage(ctx, repo)
	if err != nil {
		// The backend repo may already be gone; free the row anyway.
		logger.WarnCtx(ctx, "Failed to measure repo before delete", "repo", fullID, "error", err)
		usage = 0
	}

	canonical := s.canonical(repo)
	if err := s.backend.DeleteRepository(ctx, canonical); err != nil && !errors.Is(err, lakefs.ErrNotFound) {
		return fmt.Errorf("failed to delete backend repository: %w", err)
	}
	if _, err := s.blobs.DeletePrefix(ctx, canonical+"/"); err != nil {
		logger.WarnCtx(ctx, "Failed to delete repo blobs", "prefix", canonical, "error", err)
	}

	if err := s.store.DeleteRepo(ctx, repoType, fullID); err != nil {
		return err
	}
	if usage > 0 {
		if err := s.quotas.Apply(ctx, repo.Namespace, models.VisibilityOf(repo.Private), -usage); err != nil {
			logger.WarnCtx(ctx, "Failed to release quota", "repo", fullID, "error", err)
		}
	}

	logger.InfoCtx(ctx, "Deleted repository", "type", repo.RepoType, "repo", fullID, "freed_bytes", usage)
	return nil
}

// Move renames a repository, possibly across namespaces. The backend has
// no rename; a new repository is created, blobs are copied under the new
// prefix, every branch is re-staged against the remapped addresses, and
// the old repository is torn down.
func (s *Service) Move(ctx context.Context, user *models.User, repoType models.RepoType, fromFullID, toFullID string) (*models.Repository, error) {
	ctx, span := telemetry.StartRepoSpan(ctx, "registry.move", string(repoType), fromFullID)
	defer span.End()

	toNamespace, toName, ok := strings.Cut(toFullID, "/")
	if !ok {
		return nil, fmt.Errorf("%w: target %q is not namespace/name", models.ErrValidation, toFullID)
	}

	repo, err := s.store.GetRepo(ctx, repoType, fromFullID)
	if err != nil {
		return nil, err
	}
	if allowed, err := s.perms.CanAdminRepo(ctx, user, repo); err != nil {
		return nil, err
	} else if !allowed {
		return nil, auth.ErrPermissionDenied
	}
	if allowed, err := s.perms.CanCreateIn(ctx, user, toNamespace); err != nil {
		return nil, err
	} else if !allowed {
		return nil, auth.ErrPermissionDenied
	}
	if _, err := s.store.GetRepo(ctx, repoType, toFullID); err == nil {
		return nil, models.ErrDuplicateRepo
	} else if !errors.Is(err, models.ErrRepoNotFound) {
		return nil, err
	}
	if _, err := s.store.GetNamespace(ctx, toNamespace); err != nil {
		return nil, err
	}

	usage, err := s.quotas.RepoUsage(ctx, repo)
	if err != nil {
		return nil, err
	}
	crossNamespace := toNamespace != repo.Namespace
	visibility := models.VisibilityOf(repo.Private)
	if crossNamespace {
		if err := s.quotas.Admit(ctx, toNamespace, visibility, usage); err != nil {
			return nil, err
		}
	}

	oldCanonical := s.canonical(repo)
	newCanonical := lakefs.RepoName(repo.RepoType, toNamespace, toName)

	if _, err := s.backend.CreateRepository(ctx, newCanonical, s.storageNamespace(newCanonical), models.DefaultBranch); err != nil {
		return nil, fmt.Errorf("failed to create target repository: %w", err)
	}
	if _, err := s.blobs.CopyPrefix(ctx, oldCanonical+"/", newCanonical+"/", lakefs.InternalPrefix); err != nil {
		return nil, fmt.Errorf("failed to copy repo blobs: %w", err)
	}
	if err := s.restageBranches(ctx, repo, oldCanonical, newCanonical); err != nil {
		return nil, err
	}

	moved, err := s.store.MoveRepo(ctx, repoType, fromFullID, toNamespace, toName)
	if err != nil {
		return nil, err
	}

	if err := s.backend.DeleteRepository(ctx, oldCanonical); err != nil {
		logger.WarnCtx(ctx, "Failed to delete source repository", "repo", oldCanonical, "error", err)
	}
	if _, err := s.blobs.DeletePrefix(ctx, oldCanonical+"/"); err != nil {
		logger.WarnCtx(ctx, "Failed to delete source blobs", "prefix", oldCanonical, "error", err)
	}

	if crossNamespace && usage > 0 {
		if err := s.quotas.Apply(ctx, repo.Namespace, visibility, -usage); err != nil {
			logger.WarnCtx(ctx, "Failed to release source quota", "namespace", repo.Namespace, "error", err)
		}
		if err := s.quotas.Apply(ctx, toNamespace, visibility, usage); err != nil {
			logger.WarnCtx(ctx, "Failed to charge target quota", "namespace", toNamespace, "error", err)
		}
	}

	logger.InfoCtx(ctx, "Moved repository", "type", repo.RepoType, "from", fromFullID, "to", toFullID)
	return moved, nil
}

// restageBranches recreates every branch of the source repository in the
// target, staging each entry against its remapped physical address. LFS
// objects live under the shared lfs/ prefix and keep their addresses.
func (s *Service) restageBranches(ctx context.Context, repo *models.Repository, oldCanonical, newCanonical string) error {
	branches, err := s.backend.ListBranches(ctx, oldCanonical)
	if err != nil {
		return err
	}

	for _, branch := range branches {
		if branch.ID != models.DefaultBranch {
			if _, err := s.backend.CreateBranch(ctx, newCanonical, branch.ID, models.DefaultBranch); err != nil && !errors.Is(err, lakefs.ErrConflict) {
				return fmt.Errorf("failed to create branch %s: %w", branch.ID, err)
			}
		}

		entries, err := s.backend.ListAllObjects(ctx, oldCanonical, branch.ID, "")
		if err != nil {
			return err
		}
		staged := 0
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			addr := remapAddress(entry.PhysicalAddress, oldCanonical, newCanonical)
			if err := s.backend.StageObject(ctx, newCanonical, branch.ID, entry.Path, addr, entry.SizeBytes, entry.Checksum); err != nil {
				return fmt.Errorf("failed to stage %s: %w", entry.Path, err)
			}
			staged++
		}
		if staged == 0 {
			continue
		}
		if _, err := s.backend.Commit(ctx, newCanonical, branch.ID, lakefs.CommitOptions{
			Message: fmt.Sprintf("Move from %s", repo.FullID),
		}); err != nil {
			return fmt.Errorf("failed to commit branch %s: %w", branch.ID, err)
		}
	}
	return nil
}

// remapAddress rewrites a physical address from the old repository prefix
// to the new one. Addresses outside the prefix (shared LFS objects) pass
// through unchanged.
func remapAddress(addr, oldCanonical, newCanonical string) string {
	bucket, key, err := blobstore.ParseS3URI(addr)
	if err != nil {
		return addr
	}
	if !strings.HasPrefix(key, oldCanonical+"/") {
		return addr
	}
	return blobstore.S3URI(bucket, newCanonical+strings.TrimPrefix(key, oldCanonical))
}

// Settings carries repository setting updates. Nil fields stay unchanged.
type Settings struct {
	Private           *bool
	LFSThresholdBytes *int64
	LFSKeepVersions   *int
	LFSSuffixRules    *string
}

// UpdateSettings applies repository settings. Flipping the private flag
// moves the repo's bytes between the namespace quota buckets. The
// returned warning is non-empty for accepted but dubious values.
func (s *Service) UpdateSettings(ctx context.Context, user *models.User, repoType models.RepoType, fullID string, settings Settings) (*models.Repository, string, error) {
	repo, err := s.store.GetRepo(ctx, repoType, fullID)
	if err != nil {
		return nil, "", err
	}
	ok, err := s.perms.CanAdminRepo(ctx, user, repo)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", auth.ErrPermissionDenied
	}

	var warning string
	if settings.LFSKeepVersions != nil && *settings.LFSKeepVersions < 2 {
		warning = fmt.Sprintf("keep_versions=%d disables version retention; older LFS revisions become eligible for GC", *settings.LFSKeepVersions)
	}

	if settings.Private != nil && *settings.Private != repo.Private {
		if err := s.quotas.MoveVisibility(ctx, repo, *settings.Private); err != nil {
			return nil, "", err
		}
		repo.Private = *settings.Private
	}
	if settings.LFSThresholdBytes != nil {
		repo.LFSThresholdBytes = settings.LFSThresholdBytes
	}
	if settings.LFSKeepVersions != nil {
		repo.LFSKeepVersions = settings.LFSKeepVersions
	}
	if settings.LFSSuffixRules != nil {
		repo.LFSSuffixRules = settings.LFSSuffixRules
	}

	if err := s.store.UpdateRepo(ctx, repo); err != nil {
		return nil, "", err
	}
	return repo, warning, nil
}
