package lakefs

import "time"

// Repository is a backend repository.
type Repository struct {
	ID               string `json:"id"`
	StorageNamespace string `json:"storage_namespace"`
	DefaultBranch    string `json:"default_branch"`
	CreationDate     int64  `json:"creation_date"`
}

// Branch is a named mutable pointer to a commit.
type Branch struct {
	ID       string `json:"id"`
	CommitID string `json:"commit_id"`
}

// Commit is one backend commit.
type Commit struct {
	ID           string            `json:"id"`
	Parents      []string          `json:"parents"`
	Committer    string            `json:"committer"`
	Message      string            `json:"message"`
	CreationDate int64             `json:"creation_date"`
	MetaRangeID  string            `json:"meta_range_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// CreationTime returns the commit timestamp as a time.Time.
func (c *Commit) CreationTime() time.Time {
	return time.Unix(c.CreationDate, 0).UTC()
}

// ObjectStat describes one tree entry at a ref.
type ObjectStat struct {
	Path            string `json:"path"`
	PathType        string `json:"path_type"` // "object" or "common_prefix"
	PhysicalAddress string `json:"physical_address"`
	Checksum        string `json:"checksum"`
	SizeBytes       int64  `json:"size_bytes"`
	Mtime           int64  `json:"mtime"`
	ContentType     string `json:"content_type,omitempty"`
}

// IsDir reports whether the entry is a common prefix (directory).
func (o *ObjectStat) IsDir() bool {
	return o.PathType == "common_prefix"
}

// Pagination carries listing cursor state.
type Pagination struct {
	HasMore    bool   `json:"has_more"`
	NextOffset string `json:"next_offset"`
	Results    int    `json:"results"`
	MaxPerPage int    `json:"max_per_page"`
}

// ObjectList is one page of a tree listing.
type ObjectList struct {
	Results    []ObjectStat `json:"results"`
	Pagination Pagination   `json:"pagination"`
}

// CommitList is one page of a commit log.
type CommitList struct {
	Results    []Commit   `json:"results"`
	Pagination Pagination `json:"pagination"`
}

// branchList is one page of a branch listing.
type branchList struct {
	Results    []Branch   `json:"results"`
	Pagination Pagination `json:"pagination"`
}
