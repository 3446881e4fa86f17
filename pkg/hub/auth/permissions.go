package auth

import (
	"context"
	"errors"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
)

// ErrPermissionDenied indicates an authenticated principal lacks the
// required role for an operation.
var ErrPermissionDenied = errors.New("permission denied")

// Permissions answers access questions against the membership tables.
type Permissions struct {
	store store.Store
}

// NewPermissions creates a permission checker.
func NewPermissions(s store.Store) *Permissions {
	return &Permissions{store: s}
}

// CanRead reports whether user may read the repository. Public repos are
// readable by anyone, including anonymous (nil) users. Private repos
// require any role in the owning namespace.
func (p *Permissions) CanRead(ctx context.Context, user *models.User, repo *models.Repository) (bool, error) {
	if !repo.Private {
		return true, nil
	}
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() || user.Username == repo.Namespace {
		return true, nil
	}

	_, err := p.store.GetMembership(ctx, repo.Namespace, user.Username)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, models.ErrMembershipNotFound) || errors.Is(err, models.ErrOrgNotFound) {
		return false, nil
	}
	return false, err
}

// CanWrite reports whether user may mutate the repository's content or
// settings. The owner user, org members and up, and site admins qualify.
func (p *Permissions) CanWrite(ctx context.Context, user *models.User, repo *models.Repository) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() || user.Username == repo.Namespace {
		return true, nil
	}

	membership, err := p.store.GetMembership(ctx, repo.Namespace, user.Username)
	if err == nil {
		return membership.GetRole().CanWrite(), nil
	}
	if errors.Is(err, models.ErrMembershipNotFound) || errors.Is(err, models.ErrOrgNotFound) {
		return false, nil
	}
	return false, err
}

// CanAdminRepo reports whether user may change repository visibility,
// delete or move it. Requires the owner user, an org admin, or a site
// admin.
func (p *Permissions) CanAdminRepo(ctx context.Context, user *models.User, repo *models.Repository) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() || user.Username == repo.Namespace {
		return true, nil
	}

	membership, err := p.store.GetMembership(ctx, repo.Namespace, user.Username)
	if err == nil {
		return membership.GetRole().CanAdmin(), nil
	}
	if errors.Is(err, models.ErrMembershipNotFound) || errors.Is(err, models.ErrOrgNotFound) {
		return false, nil
	}
	return false, err
}

// CanCreateIn reports whether user may create a repository under namespace.
// A user namespace admits only its owner (or a site admin); an org
// namespace requires a writing role.
func (p *Permissions) CanCreateIn(ctx context.Context, user *models.User, namespace string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() || user.Username == namespace {
		return true, nil
	}

	membership, err := p.store.GetMembership(ctx, namespace, user.Username)
	if err == nil {
		return membership.GetRole().CanWrite(), nil
	}
	if errors.Is(err, models.ErrMembershipNotFound) || errors.Is(err, models.ErrOrgNotFound) {
		return false, nil
	}
	return false, err
}

// CanAdminNamespace reports whether user may manage the namespace itself
// (quotas, membership). Only the namespace owner, org admins, or site
// admins qualify.
func (p *Permissions) CanAdminNamespace(ctx context.Context, user *models.User, namespace string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() || user.Username == namespace {
		return true, nil
	}

	membership, err := p.store.GetMembership(ctx, namespace, user.Username)
	if err == nil {
		return membership.GetRole().CanAdmin(), nil
	}
	if errors.Is(err, models.ErrMembershipNotFound) || errors.Is(err, models.ErrOrgNotFound) {
		return false, nil
	}
	return false, err
}
