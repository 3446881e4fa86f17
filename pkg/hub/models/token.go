package models

import "time"

// Token is an API token. Only the SHA-256 of the secret is stored; the
// plaintext is shown once at creation and never again.
type Token struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"not null;size:36;index" json:"user_id"`
	TokenHash string     `gorm:"not null;size:64;uniqueIndex" json:"-"`
	Name      string     `gorm:"not null;size:255" json:"name"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

// TableName returns the table name for Token.
func (Token) TableName() string {
	return "tokens"
}
