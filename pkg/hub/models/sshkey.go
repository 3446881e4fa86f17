package models

import "time"

// SSHKey is a registered public key. The fingerprint is the SHA256 form
// produced by x/crypto/ssh; a user cannot register the same key twice but
// distinct users may hold the same key.
type SSHKey struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"not null;size:36;index;uniqueIndex:idx_sshkey_user_fp" json:"user_id"`
	Title       string     `gorm:"not null;size:255" json:"title"`
	PublicKey   string     `gorm:"not null;size:8192" json:"public_key"`
	Fingerprint string     `gorm:"not null;size:64;uniqueIndex:idx_sshkey_user_fp" json:"fingerprint"`
	KeyType     string     `gorm:"not null;size:32" json:"key_type"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

// TableName returns the table name for SSHKey.
func (SSHKey) TableName() string {
	return "ssh_keys"
}
