// Package store provides the hub persistence layer.
//
// This package implements the Store interface for managing hub data including
// users, organizations, repositories, tokens, SSH keys, invitations, LFS
// bookkeeping and fallback sources. Repository file content is NOT stored
// here; it lives in the branch/commit backend and the blob store.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL (HA-capable)
package store

import (
	"context"
	"time"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// RepoFilter narrows ListRepos results. Zero values mean "no filter".
type RepoFilter struct {
	// Type restricts results to one repository type (model, dataset, space).
	Type string

	// Namespace restricts results to one namespace.
	Namespace string

	// PrivateFor lists namespaces whose private repositories are included.
	// Public repositories are always included.
	PrivateFor []string

	// AllPrivate includes every private repository regardless of namespace.
	// Used by the admin surface.
	AllPrivate bool

	// Limit caps the number of results (0 = no cap). Offset skips rows.
	Limit  int
	Offset int
}

// Store provides the hub persistence interface.
//
// Thread Safety: Implementations must be safe for concurrent use from
// multiple goroutines.
//
// The Store interface supports both SQLite (single-node) and PostgreSQL (HA)
// backends.
type Store interface {
	// ============================================
	// USER OPERATIONS
	// ============================================

	// GetUser returns a user by username.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	GetUser(ctx context.Context, username string) (*models.User, error)

	// GetUserByID returns a user by their unique ID (UUID).
	// Returns models.ErrUserNotFound if no user has this ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// ListUsers returns all users.
	// Use with caution for large user counts.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CreateUser creates a new user.
	// The user ID will be generated if empty.
	// Returns the generated ID.
	// Returns models.ErrDuplicateUser if a user with the same username exists.
	// Returns models.ErrNamespaceNameConflict if an organization already
	// claims the username.
	CreateUser(ctx context.Context, user *models.User) (string, error)

	// UpdateUser updates an existing user's profile fields.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	UpdateUser(ctx context.Context, user *models.User) error

	// DeleteUser deletes a user by username along with their memberships,
	// tokens and SSH keys.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	DeleteUser(ctx context.Context, username string) error

	// UpdatePassword updates a user's password hash.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	UpdatePassword(ctx context.Context, username, passwordHash string) error

	// UpdateLastLogin updates the user's last login timestamp.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	UpdateLastLogin(ctx context.Context, username string, timestamp time.Time) error

	// ValidateCredentials verifies username/password credentials.
	// Returns the user if credentials are valid.
	// Returns models.ErrInvalidCredentials if the credentials are invalid.
	// Returns models.ErrUserDisabled if the user account is disabled.
	ValidateCredentials(ctx context.Context, username, password string) (*models.User, error)

	// SetUserEmailVerified marks the user's email address as verified.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	SetUserEmailVerified(ctx context.Context, username string, verified bool) error

	// ============================================
	// ORGANIZATION OPERATIONS
	// ============================================

	// GetOrg returns an organization by name with members preloaded.
	// Returns models.ErrOrgNotFound if the organization doesn't exist.
	GetOrg(ctx context.Context, name string) (*models.Organization, error)

	// ListOrgs returns all organizations.
	ListOrgs(ctx context.Context) ([]*models.Organization, error)

	// CreateOrg creates a new organization and makes the creator its
	// super-admin.
	// The organization ID will be generated if empty.
	// Returns the generated ID.
	// Returns models.ErrDuplicateOrg if an organization with the same name
	// exists.
	// Returns models.ErrNamespaceNameConflict if a user already claims the
	// name.
	CreateOrg(ctx context.Context, org *models.Organization, creator *models.User) (string, error)

	// UpdateOrg updates an organization's description.
	// Returns models.ErrOrgNotFound if the organization doesn't exist.
	UpdateOrg(ctx context.Context, org *models.Organization) error

	// DeleteOrg deletes an organization and its memberships.
	// Returns models.ErrOrgNotFound if the organization doesn't exist.
	DeleteOrg(ctx context.Context, name string) error

	// ============================================
	// MEMBERSHIP OPERATIONS
	// ============================================

	// GetMembership returns a user's membership in an organization.
	// Returns models.ErrMembershipNotFound if the user is not a member.
	GetMembership(ctx context.Context, orgName, username string) (*models.Membership, error)

	// ListMembers returns all memberships of an organization.
	// Returns models.ErrOrgNotFound if the organization doesn't exist.
	ListMembers(ctx context.Context, orgName string) ([]*models.Membership, error)

	// ListUserMemberships returns all organizations a user belongs to.
	ListUserMemberships(ctx context.Context, username string) ([]*models.Membership, error)

	// AddMember adds a user to an organization with the given role.
	// Returns models.ErrOrgNotFound or models.ErrUserNotFound if either side
	// doesn't exist.
	// Returns models.ErrDuplicateMembership if the user is already a member.
	AddMember(ctx context.Context, orgName, username string, role models.OrgRole) error

	// UpdateMemberRole changes a member's role.
	// Returns models.ErrMembershipNotFound if the user is not a member.
	// Returns models.ErrLastSuperAdmin when demoting the only super-admin.
	UpdateMemberRole(ctx context.Context, orgName, username string, role models.OrgRole) error

	// RemoveMember removes a user from an organization.
	// Returns models.ErrMembershipNotFound if the user is not a member.
	// Returns models.ErrLastSuperAdmin when removing the only super-admin.
	RemoveMember(ctx context.Context, orgName, username string) error

	// ============================================
	// NAMESPACE & QUOTA OPERATIONS
	// ============================================

	// GetNamespace returns the quota view of a user or organization namespace.
	// Returns models.ErrNamespaceNotFound if neither exists.
	GetNamespace(ctx context.Context, name string) (*models.Namespace, error)

	// ApplyNamespaceUsage atomically adds delta (which may be negative) to the
	// namespace's usage counter for the visibility bucket, clamping at zero.
	// Returns models.ErrNamespaceNotFound if the namespace doesn't exist.
	ApplyNamespaceUsage(ctx context.Context, name, visibility string, delta int64) error

	// SetNamespaceUsage overwrites both usage counters, used by quota
	// recomputation.
	// Returns models.ErrNamespaceNotFound if the namespace doesn't exist.
	SetNamespaceUsage(ctx context.Context, name string, privateUsed, publicUsed int64) error

	// SetNamespaceQuota sets the byte limits for a namespace. Nil means
	// unlimited.
	// Returns models.ErrNamespaceNotFound if the namespace doesn't exist.
	SetNamespaceQuota(ctx context.Context, name string, privateQuota, publicQuota *int64) error

	// ============================================
	// REPOSITORY OPERATIONS
	// ============================================

	// GetRepo returns a repository by type and full id (namespace/name).
	// Returns models.ErrRepoNotFound if the repository doesn't exist.
	GetRepo(ctx context.Context, repoType models.RepoType, fullID string) (*models.Repository, error)

	// GetRepoByID returns a repository by its unique ID.
	// Returns models.ErrRepoNotFound if the repository doesn't exist.
	GetRepoByID(ctx context.Context, id string) (*models.Repository, error)

	// ListRepos returns repositories matching the filter, newest first.
	ListRepos(ctx context.Context, filter RepoFilter) ([]*models.Repository, error)

	// CreateRepo creates a new repository record.
	// The ID will be generated if empty.
	// Returns the generated ID.
	// Returns models.ErrDuplicateRepo if a repository with the same type and
	// full id exists.
	CreateRepo(ctx context.Context, repo *models.Repository) (string, error)

	// UpdateRepo updates mutable repository fields (visibility, LFS settings).
	// Returns models.ErrRepoNotFound if the repository doesn't exist.
	UpdateRepo(ctx context.Context, repo *models.Repository) error

	// MoveRepo renames a repository to a new namespace/name.
	// Returns models.ErrRepoNotFound if the repository doesn't exist.
	// Returns models.ErrDuplicateRepo if the target full id is taken.
	MoveRepo(ctx context.Context, repoType models.RepoType, fromFullID, toNamespace, toName string) (*models.Repository, error)

	// DeleteRepo deletes a repository record along with its commit log and
	// LFS history rows.
	// Returns models.ErrRepoNotFound if the repository doesn't exist.
	DeleteRepo(ctx context.Context, repoType models.RepoType, fullID string) error

	// ============================================
	// COMMIT LOG OPERATIONS
	// ============================================

	// RecordCommit appends a commit to the repository's commit log.
	RecordCommit(ctx context.Context, commit *models.CommitLog) (string, error)

	// ListCommits returns commits for a branch, newest first.
	ListCommits(ctx context.Context, repoID, branch string, limit, offset int) ([]*models.CommitLog, error)

	// GetCommit returns a logged commit by its backend commit id.
	// Returns nil without error when the commit was not hub-created.
	GetCommit(ctx context.Context, repoID, commitID string) (*models.CommitLog, error)

	// ============================================
	// TOKEN OPERATIONS
	// ============================================

	// CreateToken stores a new API token record.
	CreateToken(ctx context.Context, token *models.Token) (string, error)

	// GetTokenByHash returns a token by the SHA-256 hex of its secret.
	// Returns models.ErrTokenNotFound if no token matches.
	GetTokenByHash(ctx context.Context, hash string) (*models.Token, error)

	// ListTokens returns all tokens belonging to a user.
	ListTokens(ctx context.Context, userID string) ([]*models.Token, error)

	// DeleteToken deletes a token by ID, scoped to its owner.
	// Returns models.ErrTokenNotFound if the token doesn't exist.
	DeleteToken(ctx context.Context, userID, tokenID string) error

	// TouchToken updates the token's last-used timestamp.
	TouchToken(ctx context.Context, tokenID string, timestamp time.Time) error

	// ============================================
	// SSH KEY OPERATIONS
	// ============================================

	// CreateSSHKey registers a public key for a user.
	// Returns models.ErrDuplicateSSHKey if the user already registered this
	// fingerprint.
	CreateSSHKey(ctx context.Context, key *models.SSHKey) (string, error)

	// GetSSHKey returns a user's key by its SHA256 fingerprint.
	// Returns models.ErrSSHKeyNotFound if no key matches.
	GetSSHKey(ctx context.Context, userID, fingerprint string) (*models.SSHKey, error)

	// ListSSHKeys returns all keys belonging to a user.
	ListSSHKeys(ctx context.Context, userID string) ([]*models.SSHKey, error)

	// DeleteSSHKey deletes a key by ID, scoped to its owner.
	// Returns models.ErrSSHKeyNotFound if the key doesn't exist.
	DeleteSSHKey(ctx context.Context, userID, keyID string) error

	// TouchSSHKey updates the key's last-used timestamp.
	TouchSSHKey(ctx context.Context, keyID string, timestamp time.Time) error

	// ============================================
	// INVITATION OPERATIONS
	// ============================================

	// CreateInvitation stores a new invitation.
	CreateInvitation(ctx context.Context, inv *models.Invitation) (string, error)

	// GetInvitation returns an invitation by its token.
	// Returns models.ErrInvitationNotFound if no invitation matches.
	GetInvitation(ctx context.Context, token string) (*models.Invitation, error)

	// ConsumeInvitation atomically claims one use of an invitation. Exactly
	// one of N concurrent calls for the last remaining use succeeds.
	// Returns models.ErrInvitationNotFound, models.ErrInvitationExpired or
	// models.ErrInvitationExhausted on failure.
	ConsumeInvitation(ctx context.Context, token string, now time.Time) (*models.Invitation, error)

	// ListInvitations returns all invitations.
	ListInvitations(ctx context.Context) ([]*models.Invitation, error)

	// DeleteInvitation deletes an invitation by token.
	// Returns models.ErrInvitationNotFound if the invitation doesn't exist.
	DeleteInvitation(ctx context.Context, token string) error

	// ============================================
	// LFS BOOKKEEPING OPERATIONS
	// ============================================

	// RecordLFSObject upserts an LFS history row for (repo, oid, path). An
	// empty path records an uploaded-but-uncommitted object. On conflict the
	// row's size and timestamp are refreshed so version ordering tracks the
	// latest reference.
	RecordLFSObject(ctx context.Context, repoID, oid, path string, size int64) error

	// ListLFSHistory returns all history rows for a repository, newest first.
	ListLFSHistory(ctx context.Context, repoID string) ([]*models.LFSObjectHistory, error)

	// ListLFSHistoryByPath returns history rows for one path, newest first.
	ListLFSHistoryByPath(ctx context.Context, repoID, path string) ([]*models.LFSObjectHistory, error)

	// CountLFSRefs returns how many history rows reference the oid across all
	// repositories.
	CountLFSRefs(ctx context.Context, oid string) (int64, error)

	// DeleteLFSRows deletes history rows by ID.
	DeleteLFSRows(ctx context.Context, ids []string) error

	// DeleteLFSHistoryByRepo deletes all history rows for a repository.
	DeleteLFSHistoryByRepo(ctx context.Context, repoID string) error

	// ============================================
	// STORAGE RESERVATION OPERATIONS
	// ============================================

	// CreateReservation records quota admitted for an in-flight upload.
	CreateReservation(ctx context.Context, resv *models.StorageReservation) (string, error)

	// ReleaseReservations deletes reservations for an uploaded object.
	ReleaseReservations(ctx context.Context, repoID, oid string) error

	// SumActiveReservations returns the total reserved bytes for a namespace
	// visibility bucket, ignoring expired reservations.
	SumActiveReservations(ctx context.Context, namespace, visibility string, now time.Time) (int64, error)

	// PurgeExpiredReservations deletes reservations past their deadline and
	// returns how many were removed.
	PurgeExpiredReservations(ctx context.Context, now time.Time) (int64, error)

	// ============================================
	// FALLBACK SOURCE OPERATIONS
	// ============================================

	// GetFallbackSource returns a source by name.
	// Returns models.ErrSourceNotFound if the source doesn't exist.
	GetFallbackSource(ctx context.Context, name string) (*models.FallbackSource, error)

	// ListFallbackSources returns all sources ordered by ascending priority.
	ListFallbackSources(ctx context.Context) ([]*models.FallbackSource, error)

	// ListEnabledFallbackSources returns enabled sources ordered by ascending
	// priority.
	ListEnabledFallbackSources(ctx context.Context) ([]*models.FallbackSource, error)

	// CreateFallbackSource stores a new source.
	// Returns models.ErrDuplicateSource if the name is taken.
	CreateFallbackSource(ctx context.Context, src *models.FallbackSource) (string, error)

	// UpsertFallbackSource creates the source or updates its endpoint, token,
	// priority and enabled flag. Used to seed configured sources at startup.
	UpsertFallbackSource(ctx context.Context, src *models.FallbackSource) error

	// UpdateFallbackSource updates an existing source.
	// Returns models.ErrSourceNotFound if the source doesn't exist.
	UpdateFallbackSource(ctx context.Context, src *models.FallbackSource) error

	// DeleteFallbackSource deletes a source by name.
	// Returns models.ErrSourceNotFound if the source doesn't exist.
	DeleteFallbackSource(ctx context.Context, name string) error

	// ============================================
	// HEALTH & LIFECYCLE
	// ============================================

	// Healthcheck verifies the store is operational.
	// Returns an error if the store is not healthy.
	Healthcheck(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}
