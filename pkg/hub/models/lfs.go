package models

import "time"

// LFSObjectHistory records which LFS objects were referenced at which paths
// in a repository. One row per (repo, oid, path); commits upsert rows with
// the path they bound the object to, verify records a row with an empty path
// when no commit has claimed the object yet. Version GC walks rows whose
// path matches, ordered by creation time, and deletes blobs beyond the
// configured keep count.
type LFSObjectHistory struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	RepoID    string    `gorm:"not null;size:36;uniqueIndex:idx_lfs_repo_oid_path" json:"repo_id"`
	OID       string    `gorm:"not null;size:64;uniqueIndex:idx_lfs_repo_oid_path;index" json:"oid"`
	Path      string    `gorm:"not null;size:1024;uniqueIndex:idx_lfs_repo_oid_path;default:''" json:"path"`
	Size      int64     `gorm:"not null" json:"size"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for LFSObjectHistory.
func (LFSObjectHistory) TableName() string {
	return "lfs_object_history"
}

// StorageReservation holds quota admitted for an in-flight LFS upload.
// Batch admission creates one per object that needs uploading; verify (or
// expiry sweep) releases it. Pending reservations count against the
// namespace quota so concurrent batches cannot jointly overshoot.
type StorageReservation struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Namespace  string    `gorm:"not null;size:255;index:idx_resv_ns_vis" json:"namespace"`
	Visibility string    `gorm:"not null;size:10;index:idx_resv_ns_vis" json:"visibility"` // private or public
	RepoID     string    `gorm:"not null;size:36;index" json:"repo_id"`
	OID        string    `gorm:"not null;size:64;index" json:"oid"`
	Size       int64     `gorm:"not null" json:"size"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for StorageReservation.
func (StorageReservation) TableName() string {
	return "storage_reservations"
}

// Expired reports whether the reservation has passed its deadline.
func (r *StorageReservation) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
