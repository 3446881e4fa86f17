package apiclient

import "time"

// SSHKey is a registered public key.
type SSHKey struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	PublicKey   string     `json:"public_key,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	KeyType     string     `json:"key_type"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

// AddSSHKey registers a public key in authorized_keys format. An empty
// title falls back to the key comment.
func (c *Client) AddSSHKey(key, title string) (*SSHKey, error) {
	req := struct {
		Key   string `json:"key"`
		Title string `json:"title,omitempty"`
	}{key, title}
	return createResource[SSHKey](c, "/api/user/keys", req)
}

// ListSSHKeys returns the caller's registered keys.
func (c *Client) ListSSHKeys() ([]SSHKey, error) {
	var resp struct {
		Keys []SSHKey `json:"keys"`
	}
	if err := c.get("/api/user/keys", &resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// DeleteSSHKey removes a key by ID.
func (c *Client) DeleteSSHKey(id string) error {
	return c.delete(resourcePath("/api/user/keys/%s", id), nil, nil)
}
