package apiclient

import "time"

// Invitation is a server invitation token.
type Invitation struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	Action    string     `json:"action"` // "register" or "join_org"
	OrgName   string     `json:"org_name,omitempty"`
	Role      string     `json:"role,omitempty"`
	CreatedBy string     `json:"created_by"`
	MaxUses   int        `json:"max_uses"`
	UsedCount int        `json:"used_count"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CreateInvitationRequest is the request to mint an invitation.
type CreateInvitationRequest struct {
	Action    string     `json:"action"`
	OrgName   string     `json:"org_name,omitempty"`
	Role      string     `json:"role,omitempty"`
	MaxUses   int        `json:"max_uses,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateInvitation mints an invitation. Register invitations need site
// admin rights; join_org invitations need admin rights on the org.
func (c *Client) CreateInvitation(req *CreateInvitationRequest) (*Invitation, error) {
	return createResource[Invitation](c, "/api/invitations/create", req)
}

// AcceptResult reports the membership granted by a join_org invitation.
type AcceptResult struct {
	Org  string `json:"org"`
	Role string `json:"role"`
}

// AcceptInvitation consumes a join_org invitation for the signed-in
// caller.
func (c *Client) AcceptInvitation(token string) (*AcceptResult, error) {
	req := struct {
		Token string `json:"token"`
	}{token}
	return createResource[AcceptResult](c, "/api/invitations/accept", req)
}

// ListInvitations returns all invitations (site admin only).
func (c *Client) ListInvitations() ([]Invitation, error) {
	var resp struct {
		Invitations []Invitation `json:"invitations"`
	}
	if err := c.get("/api/invitations", &resp); err != nil {
		return nil, err
	}
	return resp.Invitations, nil
}

// DeleteInvitation revokes an invitation by token.
func (c *Client) DeleteInvitation(token string) error {
	return c.delete(resourcePath("/api/invitations/%s", token), nil, nil)
}
