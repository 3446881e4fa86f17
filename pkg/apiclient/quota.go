package apiclient

// NamespaceQuota is the quota view of a user or organization namespace.
// Nil limits mean unlimited.
type NamespaceQuota struct {
	Name              string `json:"name"`
	IsOrg             bool   `json:"is_org"`
	PrivateQuotaBytes *int64 `json:"private_quota_bytes"`
	PublicQuotaBytes  *int64 `json:"public_quota_bytes"`
	PrivateUsedBytes  int64  `json:"private_used_bytes"`
	PublicUsedBytes   int64  `json:"public_used_bytes"`
}

// GetQuota returns a namespace's quota and usage.
func (c *Client) GetQuota(namespace string) (*NamespaceQuota, error) {
	return getResource[NamespaceQuota](c, resourcePath("/api/quota/%s", namespace))
}

// UpdateQuota sets a namespace's byte limits. Nil means unlimited.
// Requires site admin rights.
func (c *Client) UpdateQuota(namespace string, privateQuota, publicQuota *int64) (*NamespaceQuota, error) {
	req := struct {
		PrivateQuotaBytes *int64 `json:"private_quota_bytes"`
		PublicQuotaBytes  *int64 `json:"public_quota_bytes"`
	}{privateQuota, publicQuota}
	return updateResource[NamespaceQuota](c, resourcePath("/api/quota/%s", namespace), req)
}

// QuotaUsage reports recomputed usage counters.
type QuotaUsage struct {
	Namespace        string `json:"namespace"`
	PrivateUsedBytes int64  `json:"private_used_bytes"`
	PublicUsedBytes  int64  `json:"public_used_bytes"`
}

// RecalculateQuota recomputes a namespace's usage from actual repository
// contents.
func (c *Client) RecalculateQuota(namespace string) (*QuotaUsage, error) {
	return createResource[QuotaUsage](c, resourcePath("/api/quota/%s/recalculate", namespace), nil)
}
