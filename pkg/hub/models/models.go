// Package models defines the control-plane data model: users, organizations,
// repositories, tokens, SSH keys, invitations, LFS bookkeeping and fallback
// sources. Repository content is not modeled here; it lives in the
// branch/commit backend and the blob store.
package models

// AllModels returns every model for schema migration.
func AllModels() []any {
	return []any{
		&User{},
		&Organization{},
		&Membership{},
		&Repository{},
		&CommitLog{},
		&Token{},
		&SSHKey{},
		&Invitation{},
		&LFSObjectHistory{},
		&StorageReservation{},
		&FallbackSource{},
	}
}
