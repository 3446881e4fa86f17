package registry

import (
	"context"
	"strings"
	"time"

	"github.com/kohakuhub/kohakuhub/internal/telemetry"
	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

// treePageSize is the backend page size for non-recursive tree listings.
const treePageSize = 1000

// Sibling is a file reference in repo info responses, in the shape hub
// clients expect.
type Sibling struct {
	Rfilename string `json:"rfilename"`
}

// RepoInfo is the repo/revision info response body.
type RepoInfo struct {
	ID           string    `json:"id"`
	Author       string    `json:"author"`
	SHA          string    `json:"sha"`
	LastModified time.Time `json:"lastModified"`
	CreatedAt    time.Time `json:"createdAt"`
	Private      bool      `json:"private"`
	Downloads    int       `json:"downloads"`
	Likes        int       `json:"likes"`
	Tags         []string  `json:"tags"`
	Siblings     []Sibling `json:"siblings"`
}

// LFSInfo describes the LFS object behind a tree entry.
type LFSInfo struct {
	OID         string `json:"oid"`
	Size        int64  `json:"size"`
	PointerSize int    `json:"pointerSize"`
}

// TreeEntry is one row of a tree listing.
type TreeEntry struct {
	Type string   `json:"type"` // "file" or "directory"
	OID  string   `json:"oid"`
	Size int64    `json:"size"`
	Path string   `json:"path"`
	LFS  *LFSInfo `json:"lfs,omitempty"`
}

// Info assembles repo info at the default branch head.
func (s *Service) Info(ctx context.Context, repo *models.Repository) (*RepoInfo, error) {
	return s.Revision(ctx, repo, models.DefaultBranch)
}

// Revision assembles repo info at a branch name or commit id.
func (s *Service) Revision(ctx context.Context, repo *models.Repository, rev string) (*RepoInfo, error) {
	ctx, span := telemetry.StartRepoSpan(ctx, "registry.revision", repo.RepoType, repo.FullID,
		telemetry.Revision(rev))
	defer span.End()

	canonical := s.canonical(repo)
	commit, err := s.backend.ResolveRef(ctx, canonical, rev)
	if err != nil {
		return nil, err
	}

	entries, err := s.backend.ListAllObjects(ctx, canonical, commit.ID, "")
	if err != nil {
		return nil, err
	}
	siblings := make([]Sibling, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		siblings = append(siblings, Sibling{Rfilename: entry.Path})
	}

	return &RepoInfo{
		ID:           repo.FullID,
		Author:       repo.Namespace,
		SHA:          commit.ID,
		LastModified: commit.CreationTime(),
		CreatedAt:    repo.CreatedAt,
		Private:      repo.Private,
		Tags:         []string{},
		Siblings:     siblings,
	}, nil
}

// Tree lists the entries under path at a revision. Non-recursive listings
// collapse subdirectories into directory entries.
func (s *Service) Tree(ctx context.Context, repo *models.Repository, rev, path string, recursive bool) ([]TreeEntry, error) {
	ctx, span := telemetry.StartRepoSpan(ctx, "registry.tree", repo.RepoType, repo.FullID,
		telemetry.Revision(rev), telemetry.Path(path))
	defer span.End()

	prefix := strings.Trim(path, "/")
	if prefix != "" {
		prefix += "/"
	}

	canonical := s.canonical(repo)
	var stats []lakefs.ObjectStat
	if recursive {
		all, err := s.backend.ListAllObjects(ctx, canonical, rev, prefix)
		if err != nil {
			return nil, err
		}
		stats = all
	} else {
		after := ""
		for {
			page, err := s.backend.ListObjects(ctx, canonical, rev, lakefs.ListObjectsOptions{
				Prefix:    prefix,
				After:     after,
				Amount:    treePageSize,
				Delimiter: "/",
			})
			if err != nil {
				return nil, err
			}
			stats = append(stats, page.Results...)
			if !page.Pagination.HasMore {
				break
			}
			after = page.Pagination.NextOffset
		}
	}

	entries := make([]TreeEntry, 0, len(stats))
	for _, stat := range stats {
		entries = append(entries, s.treeEntry(stat))
	}
	return entries, nil
}

// treeEntry maps a backend object stat to a tree row, detecting entries
// whose physical address points into the shared LFS prefix.
func (s *Service) treeEntry(stat lakefs.ObjectStat) TreeEntry {
	if stat.IsDir() {
		return TreeEntry{
			Type: "directory",
			Path: strings.TrimSuffix(stat.Path, "/"),
		}
	}

	entry := TreeEntry{
		Type: "file",
		OID:  stat.Checksum,
		Size: stat.SizeBytes,
		Path: stat.Path,
	}
	if _, key, err := blobstore.ParseS3URI(stat.PhysicalAddress); err == nil {
		if oid, ok := lfs.OIDFromKey(key); ok {
			entry.LFS = &LFSInfo{
				OID:         oid,
				Size:        stat.SizeBytes,
				PointerSize: len(lfs.PointerText(oid, stat.SizeBytes)),
			}
		}
	}
	return entry
}

// Ref is one branch in a refs listing.
type Ref struct {
	Name         string `json:"name"`
	Ref          string `json:"ref"`
	TargetCommit string `json:"targetCommit"`
}

// Refs lists the repository's branches.
func (s *Service) Refs(ctx context.Context, repo *models.Repository) ([]Ref, error) {
	branches, err := s.backend.ListBranches(ctx, s.canonical(repo))
	if err != nil {
		return nil, err
	}
	refs := make([]Ref, 0, len(branches))
	for _, b := range branches {
		refs = append(refs, Ref{
			Name:         b.ID,
			Ref:          "refs/heads/" + b.ID,
			TargetCommit: b.CommitID,
		})
	}
	return refs, nil
}

// Commits returns a page of the backend commit log at a revision.
func (s *Service) Commits(ctx context.Context, repo *models.Repository, rev, after string, amount int) (*lakefs.CommitList, error) {
	return s.backend.ListCommits(ctx, s.canonical(repo), rev, after, amount)
}
