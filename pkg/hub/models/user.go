package models

import (
	"fmt"
	"time"
)

// UserRole represents the site-wide role of a user.
type UserRole string

const (
	// RoleUser is a regular user.
	RoleUser UserRole = "user"
	// RoleAdmin is a site administrator with access to the admin surface
	// (quota management, fallback sources, user administration).
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is a valid UserRole.
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a hub account. A user's name is also a namespace under
// which repositories live, so it shares the sibling-uniqueness rule with
// organization names and carries its own storage quota counters.
type User struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Username      string     `gorm:"uniqueIndex;not null;size:255" json:"username"`
	PasswordHash  string     `gorm:"not null" json:"-"`
	Email         string     `gorm:"size:255" json:"email,omitempty"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	Enabled       bool       `gorm:"default:true" json:"enabled"`
	Role          string     `gorm:"default:user;size:50" json:"role"` // user, admin
	DisplayName   string     `gorm:"size:255" json:"display_name,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`

	// Storage quota counters for the user's personal namespace.
	// A nil quota means unlimited.
	PrivateQuotaBytes *int64 `json:"private_quota_bytes,omitempty"`
	PublicQuotaBytes  *int64 `json:"public_quota_bytes,omitempty"`
	PrivateUsedBytes  int64  `gorm:"default:0" json:"private_used_bytes"`
	PublicUsedBytes   int64  `gorm:"default:0" json:"public_used_bytes"`

	Memberships []Membership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	SSHKeys     []SSHKey     `gorm:"foreignKey:UserID" json:"ssh_keys,omitempty"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// GetDisplayName returns the display name, or username if unset.
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// IsAdmin checks if the user has the site admin role.
func (u *User) IsAdmin() bool {
	return u.Role == string(RoleAdmin)
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if err := ValidateNamespaceName(u.Username); err != nil {
		return err
	}
	if u.Role != "" && !UserRole(u.Role).IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}
