package apiclient

import "time"

// Org is an organization with its member roster.
type Org struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	Members     []OrgMember `json:"members"`
}

// OrgMember is one membership row.
type OrgMember struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// CreateOrg creates an organization; the caller becomes its super-admin.
func (c *Client) CreateOrg(name, description string) error {
	req := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}{name, description}
	return c.post("/api/orgs/create", req, nil)
}

// GetOrg returns an organization and its members.
func (c *Client) GetOrg(name string) (*Org, error) {
	return getResource[Org](c, resourcePath("/api/orgs/%s", name))
}

// AddOrgMember adds a user to an organization.
func (c *Client) AddOrgMember(org, username, role string) error {
	req := OrgMember{Username: username, Role: role}
	return c.post(resourcePath("/api/orgs/%s/members", org), req, nil)
}

// UpdateOrgMemberRole changes a member's role.
func (c *Client) UpdateOrgMemberRole(org, username, role string) error {
	req := struct {
		Role string `json:"role"`
	}{role}
	return c.put(resourcePath("/api/orgs/%s/members/%s", org, username), req, nil)
}

// RemoveOrgMember removes a user from an organization.
func (c *Client) RemoveOrgMember(org, username string) error {
	return c.delete(resourcePath("/api/orgs/%s/members/%s", org, username), nil, nil)
}
