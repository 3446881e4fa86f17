package apiclient

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// typeSegment normalizes a repo type to the plural URL segment, so both
// "model" and "models" address the same routes.
func typeSegment(repoType string) string {
	if !strings.HasSuffix(repoType, "s") {
		return repoType + "s"
	}
	return repoType
}

// CreateRepoRequest is the request to create a repository.
type CreateRepoRequest struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
	Private   bool   `json:"private"`
}

// RepoURL is the response from repository create and move.
type RepoURL struct {
	URL    string `json:"url"`
	RepoID string `json:"repo_id"`
}

// CreateRepo creates a repository.
func (c *Client) CreateRepo(req *CreateRepoRequest) (*RepoURL, error) {
	return createResource[RepoURL](c, "/api/repos/create", req)
}

// DeleteRepo deletes a repository and all its content.
func (c *Client) DeleteRepo(repoType, namespace, name string) error {
	req := struct {
		Type      string `json:"type"`
		Namespace string `json:"namespace"`
		Name      string `json:"name"`
	}{repoType, namespace, name}
	return c.delete("/api/repos/delete", req, nil)
}

// MoveRepo renames a repository. Both arguments are namespace/name ids.
func (c *Client) MoveRepo(repoType, fromRepo, toRepo string) (*RepoURL, error) {
	req := struct {
		Type     string `json:"type"`
		FromRepo string `json:"fromRepo"`
		ToRepo   string `json:"toRepo"`
	}{repoType, fromRepo, toRepo}
	return createResource[RepoURL](c, "/api/repos/move", req)
}

// RepoSettings are the mutable per-repository settings. Nil fields are
// left unchanged on update.
type RepoSettings struct {
	Private           *bool   `json:"private,omitempty"`
	LFSThresholdBytes *int64  `json:"lfs_threshold_bytes,omitempty"`
	LFSKeepVersions   *int    `json:"lfs_keep_versions,omitempty"`
	LFSSuffixRules    *string `json:"lfs_suffix_rules,omitempty"`
}

// GetRepoSettings returns a repository's settings.
func (c *Client) GetRepoSettings(repoType, namespace, name string) (*RepoSettings, error) {
	path := resourcePath("/api/"+typeSegment(repoType)+"/%s/%s/settings", namespace, name)
	return getResource[RepoSettings](c, path)
}

// SettingsResult reports the applied settings update. Warning is set
// when the change took effect but deserves operator attention.
type SettingsResult struct {
	RepoID  string `json:"repo_id"`
	Private bool   `json:"private"`
	Warning string `json:"warning,omitempty"`
}

// UpdateRepoSettings applies a settings change.
func (c *Client) UpdateRepoSettings(repoType, namespace, name string, settings *RepoSettings) (*SettingsResult, error) {
	path := resourcePath("/api/"+typeSegment(repoType)+"/%s/%s/settings", namespace, name)
	return updateResource[SettingsResult](c, path, settings)
}

// RepoSummary is one row of a repository listing.
type RepoSummary struct {
	ID           string    `json:"id"`
	Author       string    `json:"author"`
	Private      bool      `json:"private"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

// ListReposOptions narrow a repository listing.
type ListReposOptions struct {
	// Author restricts results to one namespace.
	Author string
	// Limit caps the page size (0 = server default).
	Limit int
}

// ListRepos lists repositories of one type visible to the caller.
func (c *Client) ListRepos(repoType string, opts ListReposOptions) ([]RepoSummary, error) {
	params := url.Values{}
	if opts.Author != "" {
		params.Set("author", opts.Author)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/api/" + typeSegment(repoType)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var repos []RepoSummary
	if err := c.get(path, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// Sibling is one file entry in a repository info response.
type Sibling struct {
	Rfilename string `json:"rfilename"`
}

// RepoInfo is the hub's card view of a repository at a revision.
type RepoInfo struct {
	ID           string    `json:"id"`
	Author       string    `json:"author"`
	SHA          string    `json:"sha"`
	LastModified time.Time `json:"lastModified"`
	CreatedAt    time.Time `json:"createdAt"`
	Private      bool      `json:"private"`
	Tags         []string  `json:"tags"`
	Siblings     []Sibling `json:"siblings"`
}

// GetRepoInfo returns repository info at the default branch.
func (c *Client) GetRepoInfo(repoType, namespace, name string) (*RepoInfo, error) {
	path := resourcePath("/api/"+typeSegment(repoType)+"/%s/%s", namespace, name)
	return getResource[RepoInfo](c, path)
}

// GetRepoRevision returns repository info at a specific revision.
func (c *Client) GetRepoRevision(repoType, namespace, name, revision string) (*RepoInfo, error) {
	path := resourcePath("/api/"+typeSegment(repoType)+"/%s/%s/revision/%s", namespace, name, revision)
	return getResource[RepoInfo](c, path)
}

// LFSInfo describes the LFS pointer behind a tree entry.
type LFSInfo struct {
	OID         string `json:"oid"`
	Size        int64  `json:"size"`
	PointerSize int    `json:"pointerSize"`
}

// TreeEntry is one file or directory in a tree listing.
type TreeEntry struct {
	Type string   `json:"type"` // "file" or "directory"
	OID  string   `json:"oid"`
	Size int64    `json:"size"`
	Path string   `json:"path"`
	LFS  *LFSInfo `json:"lfs,omitempty"`
}

// ListTree lists a repository tree at a revision. Path may be empty for
// the root; recursive expands directories.
func (c *Client) ListTree(repoType, namespace, name, revision, path string, recursive bool) ([]TreeEntry, error) {
	p := resourcePath("/api/"+typeSegment(repoType)+"/%s/%s/tree/%s", namespace, name, revision)
	if path != "" {
		p += "/" + path
	}
	if recursive {
		p += "?recursive=true"
	}

	var entries []TreeEntry
	if err := c.get(p, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Ref is one branch in a refs listing.
type Ref struct {
	Name         string `json:"name"`
	Ref          string `json:"ref"`
	TargetCommit string `json:"targetCommit"`
}

// ListRefs lists a repository's branches.
func (c *Client) ListRefs(repoType, namespace, name string) ([]Ref, error) {
	var resp struct {
		Branches []Ref `json:"branches"`
	}
	path := resourcePath("/api/"+typeSegment(repoType)+"/%s/%s/refs", namespace, name)
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return resp.Branches, nil
}

// Commit is one entry of the commit log.
type Commit struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Date    time.Time      `json:"date"`
	Parents []string       `json:"parents"`
	Authors []CommitAuthor `json:"authors,omitempty"`
	Message string         `json:"message,omitempty"`
}

// CommitAuthor names one author of a commit.
type CommitAuthor struct {
	User string `json:"user"`
}

// CommitPage is one page of a repository's commit log.
type CommitPage struct {
	Commits []Commit `json:"commits"`
	HasMore bool     `json:"hasMore"`
	Next    string   `json:"next"`
}

// ListCommits returns a page of the commit log at a revision. After is
// the pagination cursor from a previous page; limit 0 uses the server
// default.
func (c *Client) ListCommits(repoType, namespace, name, revision, after string, limit int) (*CommitPage, error) {
	path := resourcePath("/api/"+typeSegment(repoType)+"/%s/%s/commits/%s", namespace, name, revision)
	params := url.Values{}
	if after != "" {
		params.Set("after", after)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return getResource[CommitPage](c, path)
}

// GCResult reports what an LFS garbage collection pass did.
type GCResult struct {
	Scanned    int   `json:"scanned"`
	Deleted    int   `json:"deleted"`
	BytesFreed int64 `json:"bytes_freed"`
}

// LFSGC runs LFS garbage collection on a repository. With dryRun the
// pass only reports what it would delete.
func (c *Client) LFSGC(repoType, namespace, name string, dryRun bool) (*GCResult, error) {
	path := resourcePath("/api/"+typeSegment(repoType)+"/%s/%s/lfs/gc", namespace, name)
	if dryRun {
		path += "?dry_run=true"
	}
	return createResource[GCResult](c, path, nil)
}
