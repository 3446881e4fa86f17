package models

import (
	"fmt"
	"strings"
	"time"
)

// RepoType classifies a repository as a model, dataset or space.
type RepoType string

const (
	RepoTypeModel   RepoType = "model"
	RepoTypeDataset RepoType = "dataset"
	RepoTypeSpace   RepoType = "space"
)

// IsValid checks if the type is a known RepoType.
func (t RepoType) IsValid() bool {
	switch t {
	case RepoTypeModel, RepoTypeDataset, RepoTypeSpace:
		return true
	}
	return false
}

// Plural returns the URL path segment for the type ("models", "datasets",
// "spaces").
func (t RepoType) Plural() string {
	return string(t) + "s"
}

// ParseRepoType accepts both singular and plural forms ("model", "models").
func ParseRepoType(s string) (RepoType, error) {
	t := RepoType(strings.TrimSuffix(strings.ToLower(s), "s"))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid repository type %q", s)
	}
	return t, nil
}

// DefaultBranch is the branch every repository is created with.
const DefaultBranch = "main"

// Repository is the control-plane record of a hub repository. The content
// itself lives in the branch/commit backend and the blob store; this row
// carries identity, visibility and per-repo LFS settings.
type Repository struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	RepoType  string    `gorm:"not null;size:20;uniqueIndex:idx_repo_type_full_id" json:"repo_type"`
	Namespace string    `gorm:"not null;size:255;index" json:"namespace"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	FullID    string    `gorm:"not null;size:512;uniqueIndex:idx_repo_type_full_id" json:"full_id"` // namespace/name
	Private   bool      `gorm:"default:false" json:"private"`
	OwnerID   string    `gorm:"size:36" json:"owner_id"` // creating user
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Per-repo LFS settings. Nil falls back to the server defaults.
	LFSThresholdBytes *int64  `json:"lfs_threshold_bytes,omitempty"`
	LFSKeepVersions   *int    `json:"lfs_keep_versions,omitempty"`
	LFSSuffixRules    *string `json:"lfs_suffix_rules,omitempty"` // comma-separated, e.g. ".safetensors,.bin"
}

// TableName returns the table name for Repository.
func (Repository) TableName() string {
	return "repositories"
}

// Type returns the repository type as a RepoType.
func (r *Repository) Type() RepoType {
	return RepoType(r.RepoType)
}

// SuffixRules returns the per-repo always-LFS suffix list, or nil when the
// server defaults apply.
func (r *Repository) SuffixRules() []string {
	if r.LFSSuffixRules == nil {
		return nil
	}
	var rules []string
	for _, s := range strings.Split(*r.LFSSuffixRules, ",") {
		if s = strings.TrimSpace(s); s != "" {
			rules = append(rules, s)
		}
	}
	return rules
}

// Validate checks repository identity fields.
func (r *Repository) Validate() error {
	if !RepoType(r.RepoType).IsValid() {
		return fmt.Errorf("invalid repository type %q", r.RepoType)
	}
	if err := ValidateNamespaceName(r.Namespace); err != nil {
		return err
	}
	if err := ValidateRepoName(r.Name); err != nil {
		return err
	}
	if want := r.Namespace + "/" + r.Name; r.FullID != want {
		return fmt.Errorf("full id %q does not match %q", r.FullID, want)
	}
	return nil
}

// ValidateRepoName checks that name is usable as a repository name segment.
func ValidateRepoName(name string) error {
	// Repository names share the namespace charset.
	if err := ValidateNamespaceName(name); err != nil {
		return fmt.Errorf("invalid repository name %q", name)
	}
	return nil
}

// CommitLog records a hub-created commit: who made it, when, the message,
// and the backend commit id it resolved to. The branch/commit backend holds
// the authoritative history; this table serves listings and author lookups.
type CommitLog struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	RepoID      string    `gorm:"not null;size:36;index:idx_commit_repo_branch" json:"repo_id"`
	Branch      string    `gorm:"not null;size:255;index:idx_commit_repo_branch" json:"branch"`
	CommitID    string    `gorm:"not null;size:64;index" json:"commit_id"`
	ParentID    string    `gorm:"size:64" json:"parent_id,omitempty"`
	Summary     string    `gorm:"size:512" json:"summary"`
	Description string    `gorm:"size:4096" json:"description,omitempty"`
	AuthorID    string    `gorm:"size:36" json:"author_id"`
	AuthorName  string    `gorm:"size:255" json:"author_name"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for CommitLog.
func (CommitLog) TableName() string {
	return "commit_log"
}
