// Package commitengine turns NDJSON commit streams into atomic backend
// commits: inline blobs go straight to the blob store and are staged,
// LFS references are checked against storage, deletions are staged, and
// the whole batch lands as one commit with quota admitted up front.
package commitengine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

var oidPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Errors surfaced by commit processing.
var (
	// ErrLFSObjectMissing means an lfsFile record references an object
	// that was never uploaded.
	ErrLFSObjectMissing = errors.New("referenced lfs object not found in storage")

	// ErrStaleParent means the header's parentCommit no longer matches
	// the branch head.
	ErrStaleParent = errors.New("parent commit does not match branch head")
)

// Backend is the slice of the branch/commit adapter the engine drives.
type Backend interface {
	GetBranch(ctx context.Context, repo, branch string) (*lakefs.Branch, error)
	StatObject(ctx context.Context, repo, ref, path string) (*lakefs.ObjectStat, error)
	ListAllObjects(ctx context.Context, repo, ref, prefix string) ([]lakefs.ObjectStat, error)
	StageObject(ctx context.Context, repo, branch, path, physicalAddress string, size int64, checksum string) error
	DeleteObject(ctx context.Context, repo, branch, path string) error
	DeletePrefix(ctx context.Context, repo, branch, prefix string) (int, error)
	Commit(ctx context.Context, repo, branch string, opts lakefs.CommitOptions) (*lakefs.Commit, error)
}

// Blobs is the slice of the blob store the engine drives.
type Blobs interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Head(ctx context.Context, key string) (*blobstore.ObjectInfo, error)
}

// Quotas is the slice of the quota engine the engine drives.
type Quotas interface {
	Admit(ctx context.Context, namespace, visibility string, delta int64) error
	Apply(ctx context.Context, namespace, visibility string, delta int64) error
}

// Config tunes the commit engine.
type Config struct {
	// Bucket is the blob store bucket inline blobs are written to.
	Bucket string

	// LFSThresholdBytes is the server default inline size ceiling.
	// Repos may override it.
	LFSThresholdBytes int64

	// SuffixRules is the server default list of always-LFS suffixes.
	SuffixRules []string
}

// Engine processes commit streams for repositories.
type Engine struct {
	store   store.Store
	backend Backend
	blobs   Blobs
	quotas  Quotas
	cfg     Config
}

// New creates a commit engine.
func New(s store.Store, backend Backend, blobs Blobs, quotas Quotas, cfg Config) *Engine {
	return &Engine{store: s, backend: backend, blobs: blobs, quotas: quotas, cfg: cfg}
}

// Result reports a processed commit.
type Result struct {
	// OID is the backend commit id the stream produced.
	OID string `json:"commitOid"`

	// URL points at the commit for API clients.
	URL string `json:"commitUrl"`
}

// Process parses and applies one commit stream onto a branch. The caller
// has already checked write permission. All records are validated before
// any mutation; the batch lands as exactly one backend commit.
func (e *Engine) Process(ctx context.Context, user *models.User, repo *models.Repository, branch string, body io.Reader) (*Result, error) {
	ctx, span := telemetry.StartRepoSpan(ctx, "commitengine.process", repo.RepoType, repo.FullID,
		telemetry.Branch(branch))
	defer span.End()

	commit, err := ParseCommit(body)
	if err != nil {
		return nil, err
	}
	if err := e.rejectOversizedInline(repo, commit); err != nil {
		return nil, err
	}

	canonical := lakefs.RepoName(repo.RepoType, repo.Namespace, repo.Name)

	head, err := e.backend.GetBranch(ctx, canonical, branch)
	if err != nil {
		return nil, err
	}
	if commit.Header.ParentCommit != "" && commit.Header.ParentCommit != head.CommitID {
		return nil, fmt.Errorf("%w: head is %s", ErrStaleParent, head.CommitID)
	}

	delta, err := e.netDelta(ctx, canonical, branch, commit)
	if err != nil {
		return nil, err
	}
	if err := e.quotas.Admit(ctx, repo.Namespace, models.VisibilityOf(repo.Private), delta); err != nil {
		return nil, err
	}

	if err := e.stage(ctx, canonical, branch, commit); err != nil {
		return nil, err
	}

	opts := lakefs.CommitOptions{Message: commit.Header.Summary}
	if commit.Header.Description != "" {
		opts.Metadata = map[string]string{"description": commit.Header.Description}
	}
	backendCommit, err := e.backend.Commit(ctx, canonical, branch, opts)
	if err != nil {
		return nil, err
	}

	e.record(ctx, user, repo, branch, head.CommitID, backendCommit, commit)
	if err := e.quotas.Apply(ctx, repo.Namespace, models.VisibilityOf(repo.Private), delta); err != nil {
		logger.WarnCtx(ctx, "Failed to apply quota delta", "repo", repo.FullID, "error", err)
	}

	logger.InfoCtx(ctx, "Processed commit",
		"repo", repo.FullID,
		"branch", branch,
		"commit", backendCommit.ID,
		"files", len(commit.Files),
		"lfs_files", len(commit.LFSFiles),
		"deletes", len(commit.DeletedFiles)+len(commit.DeletedFolders),
		"delta_bytes", delta,
	)
	return &Result{
		OID: backendCommit.ID,
		URL: fmt.Sprintf("/%s/%s/commit/%s", repo.Type().Plural(), repo.FullID, backendCommit.ID),
	}, nil
}

// rejectOversizedInline enforces the LFS boundary: inline records above
// the repo threshold or matching an always-LFS suffix must come through
// the LFS batch flow instead.
func (e *Engine) rejectOversizedInline(repo *models.Repository, commit *Commit) error {
	threshold := e.cfg.LFSThresholdBytes
	if repo.LFSThresholdBytes != nil {
		threshold = *repo.LFSThresholdBytes
	}
	rules := e.cfg.SuffixRules
	if repoRules := repo.SuffixRules(); repoRules != nil {
		rules = repoRules
	}

	for _, file := range commit.Files {
		if threshold > 0 && int64(len(file.Data)) > threshold {
			return fmt.Errorf("%w: %s is %d bytes, above the %d byte inline limit; upload it through the LFS batch endpoint",
				models.ErrValidation, file.Path, len(file.Data), threshold)
		}
		if lfs.MatchesSuffixRule(file.Path, rules) {
			return fmt.Errorf("%w: %s matches an LFS suffix rule; upload it through the LFS batch endpoint",
				models.ErrValidation, file.Path)
		}
	}
	return nil
}

// netDelta computes the net byte change of the batch against the current
// branch head, so admission sees replacements and deletes at their true
// cost.
func (e *Engine) netDelta(ctx context.Context, canonical, branch string, commit *Commit) (int64, error) {
	var delta int64

	currentSize := func(path string) (int64, error) {
		stat, err := e.backend.StatObject(ctx, canonical, branch, path)
		if err != nil {
			if errors.Is(err, lakefs.ErrNotFound) {
				return 0, nil
			}
			return 0, err
		}
		return stat.SizeBytes, nil
	}

	for _, file := range commit.Files {
		current, err := currentSize(file.Path)
		if err != nil {
			return 0, err
		}
		delta += int64(len(file.Data)) - current
	}
	for _, lfsFile := range commit.LFSFiles {
		current, err := currentSize(lfsFile.Path)
		if err != nil {
			return 0, err
		}
		delta += lfsFile.Size - current
	}
	for _, path := range commit.DeletedFiles {
		current, err := currentSize(path)
		if err != nil {
			return 0, err
		}
		delta -= current
	}
	for _, folder := range commit.DeletedFolders {
		entries, err := e.backend.ListAllObjects(ctx, canonical, branch, strings.TrimSuffix(folder, "/")+"/")
		if err != nil {
			return 0, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			delta -= entry.SizeBytes
		}
	}
	return delta, nil
}

// stage applies every record onto the branch staging area. Inline blobs
// are written to the blob store first so a failed commit leaves only
// unreferenced objects behind.
func (e *Engine) stage(ctx context.Context, canonical, branch string, commit *Commit) error {
	for _, file := range commit.Files {
		key := canonical + "/" + file.Path
		if err := e.blobs.Put(ctx, key, bytes.NewReader(file.Data), int64(len(file.Data)), ""); err != nil {
			return fmt.Errorf("failed to store %s: %w", file.Path, err)
		}
		sum := sha256.Sum256(file.Data)
		checksum := hex.EncodeToString(sum[:])
		if err := e.backend.StageObject(ctx, canonical, branch, file.Path,
			blobstore.S3URI(e.cfg.Bucket, key), int64(len(file.Data)), checksum); err != nil {
			return fmt.Errorf("failed to stage %s: %w", file.Path, err)
		}
	}

	for _, lfsFile := range commit.LFSFiles {
		key := lfs.KeyForOID(lfsFile.OID)
		info, err := e.blobs.Head(ctx, key)
		if err != nil {
			if errors.Is(err, blobstore.ErrObjectNotFound) {
				return fmt.Errorf("%w: %s (%s)", ErrLFSObjectMissing, lfsFile.Path, lfsFile.OID)
			}
			return err
		}
		if info.Size != lfsFile.Size {
			return fmt.Errorf("%w: %s declared %d bytes, stored %d",
				ErrLFSObjectMissing, lfsFile.Path, lfsFile.Size, info.Size)
		}
		if err := e.backend.StageObject(ctx, canonical, branch, lfsFile.Path,
			blobstore.S3URI(e.cfg.Bucket, key), lfsFile.Size, lfsFile.OID); err != nil {
			return fmt.Errorf("failed to stage %s: %w", lfsFile.Path, err)
		}
	}

	for _, path := range commit.DeletedFiles {
		if err := e.backend.DeleteObject(ctx, canonical, branch, path); err != nil && !errors.Is(err, lakefs.ErrNotFound) {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}
	for _, folder := range commit.DeletedFolders {
		if _, err := e.backend.DeletePrefix(ctx, canonical, branch, strings.TrimSuffix(folder, "/")+"/"); err != nil {
			return fmt.Errorf("failed to delete folder %s: %w", folder, err)
		}
	}
	return nil
}

// record writes the commit log row and the LFS path history. Both are
// bookkeeping; the backend commit already happened.
func (e *Engine) record(ctx context.Context, user *models.User, repo *models.Repository, branch, parent string, backendCommit *lakefs.Commit, commit *Commit) {
	if _, err := e.store.RecordCommit(ctx, &models.CommitLog{
		RepoID:      repo.ID,
		Branch:      branch,
		CommitID:    backendCommit.ID,
		ParentID:    parent,
		Summary:     commit.Header.Summary,
		Description: commit.Header.Description,
		AuthorID:    user.ID,
		AuthorName:  user.Username,
	}); err != nil {
		logger.WarnCtx(ctx, "Failed to record commit log", "repo", repo.FullID, "error", err)
	}

	for _, lfsFile := range commit.LFSFiles {
		if err := e.store.RecordLFSObject(ctx, repo.ID, lfsFile.OID, lfsFile.Path, lfsFile.Size); err != nil {
			logger.WarnCtx(ctx, "Failed to record LFS history",
				"repo", repo.FullID, "path", lfsFile.Path, "error", err)
		}
	}
}
