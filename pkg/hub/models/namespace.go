package models

// Visibility buckets for storage accounting. Private and public usage are
// tracked and limited separately per namespace.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// VisibilityOf maps a repository private flag to its accounting bucket.
func VisibilityOf(private bool) string {
	if private {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// Namespace is a unified view over a user or organization for quota
// accounting. Repos live under exactly one namespace; the quota engine does
// not care which kind.
type Namespace struct {
	Name              string `json:"name"`
	IsOrg             bool   `json:"is_org"`
	PrivateQuotaBytes *int64 `json:"private_quota_bytes"` // nil = unlimited
	PublicQuotaBytes  *int64 `json:"public_quota_bytes"`  // nil = unlimited
	PrivateUsedBytes  int64  `json:"private_used_bytes"`
	PublicUsedBytes   int64  `json:"public_used_bytes"`
}

// QuotaFor returns the byte limit for the visibility bucket, nil meaning
// unlimited.
func (n *Namespace) QuotaFor(visibility string) *int64 {
	if visibility == VisibilityPrivate {
		return n.PrivateQuotaBytes
	}
	return n.PublicQuotaBytes
}

// UsedFor returns the recorded usage for the visibility bucket.
func (n *Namespace) UsedFor(visibility string) int64 {
	if visibility == VisibilityPrivate {
		return n.PrivateUsedBytes
	}
	return n.PublicUsedBytes
}

// AvailableFor returns how many bytes remain in the bucket, or -1 when the
// bucket is unlimited.
func (n *Namespace) AvailableFor(visibility string) int64 {
	quota := n.QuotaFor(visibility)
	if quota == nil {
		return -1
	}
	avail := *quota - n.UsedFor(visibility)
	if avail < 0 {
		return 0
	}
	return avail
}
