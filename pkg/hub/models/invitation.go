package models

import "time"

// Invitation actions.
const (
	InvitationActionRegister = "register"
	InvitationActionJoinOrg  = "join_org"
)

// UnlimitedUses marks an invitation that never runs out of uses.
const UnlimitedUses = -1

// Invitation is a single- or multi-use invite token. Register invitations
// gate account creation on closed instances; join_org invitations add the
// accepting user to an organization with a preset role.
type Invitation struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Token     string     `gorm:"not null;size:64;uniqueIndex" json:"token"`
	Action    string     `gorm:"not null;size:20" json:"action"`
	OrgName   string     `gorm:"size:255" json:"org_name,omitempty"`
	Role      string     `gorm:"size:20" json:"role,omitempty"`
	CreatedBy string     `gorm:"size:36" json:"created_by"`
	MaxUses   int        `gorm:"not null;default:1" json:"max_uses"`
	UsedCount int        `gorm:"not null;default:0" json:"used_count"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Invitation.
func (Invitation) TableName() string {
	return "invitations"
}

// Usable reports whether the invitation can still be accepted at now.
func (i *Invitation) Usable(now time.Time) error {
	if i.ExpiresAt != nil && now.After(*i.ExpiresAt) {
		return ErrInvitationExpired
	}
	if i.MaxUses != UnlimitedUses && i.UsedCount >= i.MaxUses {
		return ErrInvitationExhausted
	}
	return nil
}
