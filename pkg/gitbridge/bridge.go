// Package gitbridge exposes repositories over the git smart HTTP
// protocol. Each branch head is synthesized on demand into a
// single-commit snapshot: inline files become blobs, large or
// LFS-backed files become git-lfs pointer blobs, and the whole object
// set is encoded into a deterministic packfile that is cached per
// (repo, commit) with a byte budget.
package gitbridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/sync/singleflight"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
)

// Defaults for Config fields left zero.
const (
	// DefaultPackInlineThreshold is the largest file embedded directly
	// in a synthesized pack. Anything above it becomes a pointer blob.
	DefaultPackInlineThreshold = 1 << 20

	// DefaultCacheBytes bounds the pack cache.
	DefaultCacheBytes = 256 << 20
)

// UploadPackService and ReceivePackService are the two smart HTTP
// services.
const (
	UploadPackService  = "git-upload-pack"
	ReceivePackService = "git-receive-pack"
)

// Backend is the slice of the branch/commit adapter the bridge reads.
type Backend interface {
	ListBranches(ctx context.Context, repo string) ([]lakefs.Branch, error)
	ResolveRef(ctx context.Context, repo, ref string) (*lakefs.Commit, error)
	ListAllObjects(ctx context.Context, repo, ref, prefix string) ([]lakefs.ObjectStat, error)
}

// Blobs is the slice of the blob store the bridge reads inline content
// from.
type Blobs interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
}

// Metrics receives pack build observations. Nil disables reporting.
type Metrics interface {
	ObservePackBuild(seconds float64, packBytes int64)
	ObservePackCache(hit bool)
}

// Config tunes the bridge.
type Config struct {
	// BaseURL is the externally reachable server root, used for the
	// synthesized .lfsconfig.
	BaseURL string

	// PackInlineThreshold is the largest file embedded as a real blob.
	PackInlineThreshold int64

	// SuffixRules is the server default list of always-LFS suffixes.
	// Repos may override it.
	SuffixRules []string

	// CacheBytes bounds the pack cache.
	CacheBytes int64

	// AgentVersion is advertised in the protocol agent capability.
	AgentVersion string

	// Metrics is optional.
	Metrics Metrics
}

// Service synthesizes and serves git protocol responses.
type Service struct {
	backend Backend
	blobs   Blobs
	cfg     Config
	cache   *packCache
	group   singleflight.Group

	mu       sync.Mutex
	refIndex map[plumbing.Hash]refTarget
}

// refTarget maps an advertised commit hash back to the backend commit
// it was synthesized from.
type refTarget struct {
	canonical string
	commitID  string
}

// New creates a bridge service.
func New(backend Backend, blobs Blobs, cfg Config) *Service {
	if cfg.PackInlineThreshold <= 0 {
		cfg.PackInlineThreshold = DefaultPackInlineThreshold
	}
	if cfg.CacheBytes <= 0 {
		cfg.CacheBytes = DefaultCacheBytes
	}
	if cfg.AgentVersion == "" {
		cfg.AgentVersion = "dev"
	}
	return &Service{
		backend:  backend,
		blobs:    blobs,
		cfg:      cfg,
		cache:    newPackCache(cfg.CacheBytes),
		refIndex: make(map[plumbing.Hash]refTarget),
	}
}

// HeadRef is the payload of GET {repo}.git/HEAD.
func (s *Service) HeadRef() string {
	return fmt.Sprintf("ref: refs/heads/%s\n", models.DefaultBranch)
}

// Invalidate drops cached packs for a repository, typically after a
// commit or a branch mutation.
func (s *Service) Invalidate(repo *models.Repository) {
	s.cache.invalidate(lakefs.RepoName(repo.RepoType, repo.Namespace, repo.Name))
}

func (s *Service) agent() string {
	return "kohakuhub/" + s.cfg.AgentVersion
}

func (s *Service) rememberRef(hash plumbing.Hash, canonical, commitID string) {
	s.mu.Lock()
	s.refIndex[hash] = refTarget{canonical: canonical, commitID: commitID}
	s.mu.Unlock()
}

func (s *Service) lookupRef(hash plumbing.Hash) (refTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.refIndex[hash]
	return target, ok
}
