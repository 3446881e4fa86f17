package apiclient

import (
	"time"
)

// TokenResponse represents the response from login/refresh endpoints.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExpiresInDuration returns ExpiresIn as a time.Duration.
func (t *TokenResponse) ExpiresInDuration() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

// Login authenticates with the hub and returns a JWT pair.
func (c *Client) Login(username, password string) (*TokenResponse, error) {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}
	return createResource[TokenResponse](c, "/api/auth/login", req)
}

// RefreshToken rotates the JWT pair using the refresh token.
func (c *Client) RefreshToken(refreshToken string) (*TokenResponse, error) {
	req := struct {
		RefreshToken string `json:"refresh_token"`
	}{refreshToken}
	return createResource[TokenResponse](c, "/api/auth/refresh", req)
}

// APIToken is a stored token record. The secret is only present in the
// CreateAPIToken response.
type APIToken struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Token     string     `json:"token,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

// CreateAPIToken mints a long-lived API token. The returned secret is
// shown once and never stored server-side.
func (c *Client) CreateAPIToken(name string) (*APIToken, error) {
	req := struct {
		Name string `json:"name"`
	}{name}
	return createResource[APIToken](c, "/api/auth/tokens", req)
}

// ListAPITokens returns the caller's token records.
func (c *Client) ListAPITokens() ([]APIToken, error) {
	var resp struct {
		Tokens []APIToken `json:"tokens"`
	}
	if err := c.get("/api/auth/tokens", &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

// DeleteAPIToken revokes a token by ID.
func (c *Client) DeleteAPIToken(id string) error {
	return c.delete(resourcePath("/api/auth/tokens/%s", id), nil, nil)
}

// Identity is the hub's view of the authenticated caller.
type Identity struct {
	Type          string        `json:"type"`
	Name          string        `json:"name"`
	Fullname      string        `json:"fullname"`
	Email         string        `json:"email"`
	EmailVerified bool          `json:"emailVerified"`
	IsAdmin       bool          `json:"isAdmin"`
	Orgs          []IdentityOrg `json:"orgs"`
}

// IdentityOrg is one org membership in the identity response.
type IdentityOrg struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	RoleInOrg string `json:"roleInOrg"`
}

// Whoami returns the authenticated caller's identity.
func (c *Client) Whoami() (*Identity, error) {
	return getResource[Identity](c, "/api/whoami-v2")
}
