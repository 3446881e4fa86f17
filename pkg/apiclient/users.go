package apiclient

import "time"

// RegisterRequest is the request to register a new account.
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`

	// Invitation is required on invitation-gated servers.
	Invitation string `json:"invitation,omitempty"`
}

// RegisterResponse is the response from registration.
type RegisterResponse struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

// Register creates a new account.
func (c *Client) Register(req *RegisterRequest) (*RegisterResponse, error) {
	return createResource[RegisterResponse](c, "/api/users/register", req)
}

// UserProfile is a user's public profile. Contact and usage fields are
// only populated for the user themselves and site admins.
type UserProfile struct {
	Username         string    `json:"username"`
	DisplayName      string    `json:"display_name"`
	CreatedAt        time.Time `json:"created_at"`
	Email            string    `json:"email,omitempty"`
	EmailVerified    *bool     `json:"email_verified,omitempty"`
	PrivateUsedBytes *int64    `json:"private_used_bytes,omitempty"`
	PublicUsedBytes  *int64    `json:"public_used_bytes,omitempty"`
}

// GetUserProfile returns a user's profile.
func (c *Client) GetUserProfile(username string) (*UserProfile, error) {
	return getResource[UserProfile](c, resourcePath("/api/users/%s", username))
}
