package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kohakuhub/kohakuhub/pkg/api/middleware"
	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/commitengine"
	"github.com/kohakuhub/kohakuhub/pkg/fallback"
	"github.com/kohakuhub/kohakuhub/pkg/gitbridge"
	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
	"github.com/kohakuhub/kohakuhub/pkg/quota"
	"github.com/kohakuhub/kohakuhub/pkg/registry"
)

// Deps carries the services handlers dispatch into. Fallback is nil when
// the fallback proxy is disabled.
type Deps struct {
	Store    store.Store
	Registry *registry.Service
	Commits  *commitengine.Engine
	LFS      *lfs.Service
	Git      *gitbridge.Service
	Fallback *fallback.Service
	Quotas   *quota.Engine
	Backend  registry.Backend
	Blobs    *blobstore.Client
	JWT      *auth.JWTService

	// BackendHealth, when set, is probed by the readiness endpoint in
	// addition to the store.
	BackendHealth HealthChecker

	// BaseURL is the externally visible URL of this hub, without a
	// trailing slash.
	BaseURL string

	// Version is the server version reported by /api/version.
	Version string

	// RequireInvitation gates user registration on invitation tokens.
	RequireInvitation bool

	// LFSThresholdBytes and LFSSuffixRules are the server default LFS
	// classification rules, used when a repo carries no override.
	LFSThresholdBytes int64
	LFSSuffixRules    []string
}

// Handler serves the hub HTTP surface.
type Handler struct {
	deps  Deps
	perms *auth.Permissions
}

// New creates the handler set.
func New(deps Deps) *Handler {
	return &Handler{deps: deps, perms: deps.Registry.Permissions()}
}

// currentUser returns the authenticated principal, nil for anonymous.
func currentUser(r *http.Request) *models.User {
	return middleware.UserFromContext(r.Context())
}

// requireUser returns the principal or ErrAuthRequired.
func requireUser(r *http.Request) (*models.User, error) {
	user := currentUser(r)
	if user == nil {
		return nil, auth.ErrAuthRequired
	}
	return user, nil
}

// requireAdmin returns the principal only when it holds the site admin
// role.
func requireAdmin(r *http.Request) (*models.User, error) {
	user, err := requireUser(r)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, auth.ErrPermissionDenied
	}
	return user, nil
}

// repoTypeParam parses the {type} URL segment, accepting both singular
// and plural forms.
func repoTypeParam(r *http.Request) (models.RepoType, error) {
	raw := chi.URLParam(r, "type")
	repoType, err := models.ParseRepoType(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", models.ErrValidation, err)
	}
	return repoType, nil
}

// repoCoords extracts the repository coordinates from the URL.
func repoCoords(r *http.Request) (repoType models.RepoType, namespace, name string, err error) {
	repoType, err = repoTypeParam(r)
	if err != nil {
		return "", "", "", err
	}
	return repoType, chi.URLParam(r, "namespace"), chi.URLParam(r, "name"), nil
}

// loadRepoForRead loads the addressed repository and enforces read
// visibility for the caller. Private repos are indistinguishable from
// missing ones for readers without access.
func (h *Handler) loadRepoForRead(r *http.Request) (*models.Repository, error) {
	repoType, namespace, name, err := repoCoords(r)
	if err != nil {
		return nil, err
	}
	repo, err := h.deps.Registry.GetRepo(r.Context(), repoType, namespace+"/"+name)
	if err != nil {
		return nil, err
	}
	ok, err := h.perms.CanRead(r.Context(), currentUser(r), repo)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrRepoNotFound
	}
	return repo, nil
}

// loadRepoForWrite loads the addressed repository and enforces write
// permission.
func (h *Handler) loadRepoForWrite(r *http.Request) (*models.Repository, *models.User, error) {
	user, err := requireUser(r)
	if err != nil {
		return nil, nil, err
	}
	repo, err := h.loadRepoForRead(r)
	if err != nil {
		return nil, nil, err
	}
	ok, err := h.perms.CanWrite(r.Context(), user, repo)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, auth.ErrPermissionDenied
	}
	return repo, user, nil
}
