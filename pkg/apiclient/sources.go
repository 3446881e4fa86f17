package apiclient

// FallbackSource is an upstream hub consulted for repositories this
// server does not host. The upstream token never appears in responses;
// HasToken reports whether one is configured.
type FallbackSource struct {
	Name       string `json:"name"`
	Endpoint   string `json:"endpoint"`
	SourceType string `json:"source_type"` // "huggingface" or "kohakuhub"
	Namespace  string `json:"namespace,omitempty"`
	Priority   int    `json:"priority"`
	Enabled    bool   `json:"enabled"`
	HasToken   bool   `json:"has_token"`
}

// FallbackSourceRequest creates or updates a fallback source. Token is
// write-only.
type FallbackSourceRequest struct {
	Name       string `json:"name"`
	Endpoint   string `json:"endpoint"`
	SourceType string `json:"source_type,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	Token      string `json:"token,omitempty"`
	Priority   int    `json:"priority"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

// ListFallbackSources returns all configured sources (site admin only).
func (c *Client) ListFallbackSources() ([]FallbackSource, error) {
	var resp struct {
		Sources []FallbackSource `json:"sources"`
	}
	if err := c.get("/api/admin/fallback-sources", &resp); err != nil {
		return nil, err
	}
	return resp.Sources, nil
}

// CreateFallbackSource registers an upstream source.
func (c *Client) CreateFallbackSource(req *FallbackSourceRequest) (*FallbackSource, error) {
	return createResource[FallbackSource](c, "/api/admin/fallback-sources", req)
}

// UpdateFallbackSource updates an upstream source.
func (c *Client) UpdateFallbackSource(name string, req *FallbackSourceRequest) (*FallbackSource, error) {
	return updateResource[FallbackSource](c, resourcePath("/api/admin/fallback-sources/%s", name), req)
}

// DeleteFallbackSource removes an upstream source.
func (c *Client) DeleteFallbackSource(name string) error {
	return c.delete(resourcePath("/api/admin/fallback-sources/%s", name), nil, nil)
}
