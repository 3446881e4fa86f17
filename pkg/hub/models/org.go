package models

import (
	"fmt"
	"regexp"
	"time"
)

// OrgRole represents a user's role inside an organization. Roles are ordered:
// each one includes the capabilities of the ones before it.
type OrgRole string

const (
	// RoleVisitor can see the organization's private repositories.
	RoleVisitor OrgRole = "visitor"
	// RoleMember can additionally write to the organization's repositories.
	RoleMember OrgRole = "member"
	// RoleOrgAdmin can additionally manage members and repository settings.
	RoleOrgAdmin OrgRole = "admin"
	// RoleSuperAdmin can additionally manage admins and delete the
	// organization. Every organization has at least one.
	RoleSuperAdmin OrgRole = "super-admin"
)

var orgRoleRank = map[OrgRole]int{
	RoleVisitor:    0,
	RoleMember:     1,
	RoleOrgAdmin:   2,
	RoleSuperAdmin: 3,
}

// IsValid checks if the role is a valid OrgRole.
func (r OrgRole) IsValid() bool {
	_, ok := orgRoleRank[r]
	return ok
}

// AtLeast reports whether this role grants at least the capabilities of other.
func (r OrgRole) AtLeast(other OrgRole) bool {
	return orgRoleRank[r] >= orgRoleRank[other]
}

// CanWrite reports whether the role allows writing repository content.
func (r OrgRole) CanWrite() bool {
	return r.AtLeast(RoleMember)
}

// CanAdmin reports whether the role allows managing the organization.
func (r OrgRole) CanAdmin() bool {
	return r.AtLeast(RoleOrgAdmin)
}

// Organization is a shared namespace. Repositories created under it are
// governed by membership roles, and its storage counters are tracked
// separately from any member's personal namespace.
type Organization struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Description string    `gorm:"size:1024" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// A nil quota means unlimited.
	PrivateQuotaBytes *int64 `json:"private_quota_bytes,omitempty"`
	PublicQuotaBytes  *int64 `json:"public_quota_bytes,omitempty"`
	PrivateUsedBytes  int64  `gorm:"default:0" json:"private_used_bytes"`
	PublicUsedBytes   int64  `gorm:"default:0" json:"public_used_bytes"`

	Members []Membership `gorm:"foreignKey:OrgID" json:"members,omitempty"`
}

// TableName returns the table name for Organization.
func (Organization) TableName() string {
	return "organizations"
}

// Membership binds a user to an organization with a role.
type Membership struct {
	OrgID     string    `gorm:"primaryKey;size:36" json:"org_id"`
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	Role      string    `gorm:"not null;size:50" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Denormalized for listings without joins.
	Username string `gorm:"size:255" json:"username"`
	OrgName  string `gorm:"size:255" json:"org_name"`
}

// TableName returns the table name for Membership.
func (Membership) TableName() string {
	return "org_memberships"
}

// GetRole returns the membership role as an OrgRole.
func (m *Membership) GetRole() OrgRole {
	return OrgRole(m.Role)
}

// namespaceNamePattern constrains user and organization names to the
// URL-safe range accepted on hub paths.
var namespaceNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,94}$`)

// ValidateNamespaceName checks that name is usable as a namespace segment.
func ValidateNamespaceName(name string) error {
	if !namespaceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid namespace name %q", name)
	}
	return nil
}
