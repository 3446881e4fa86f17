package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/fallback"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
	"github.com/kohakuhub/kohakuhub/pkg/registry"
)

// listingPageSize caps repo listing pages when the client sends no limit.
const listingPageSize = 100

type createRepoRequest struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace"`
	// Organization is the upstream hub client's field name for the
	// namespace. Namespace wins when both are set.
	Organization string `json:"organization"`
	Name         string `json:"name"`
	Private      bool   `json:"private"`
}

// CreateRepo handles POST /api/repos/create.
func (h *Handler) CreateRepo(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createRepoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	repoType, err := models.ParseRepoType(req.Type)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %s", models.ErrValidation, err))
		return
	}
	namespace := req.Namespace
	if namespace == "" {
		namespace = req.Organization
	}

	repo, err := h.deps.Registry.Create(r.Context(), user, repoType, namespace, req.Name, req.Private)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":     fmt.Sprintf("%s/%s/%s", h.deps.BaseURL, repoType.Plural(), repo.FullID),
		"repo_id": repo.FullID,
	})
}

type repoIDRequest struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// DeleteRepo handles DELETE /api/repos/delete.
func (h *Handler) DeleteRepo(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req repoIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	repoType, err := models.ParseRepoType(req.Type)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %s", models.ErrValidation, err))
		return
	}

	if err := h.deps.Registry.Delete(r.Context(), user, repoType, req.Namespace+"/"+req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	if h.deps.Git != nil {
		h.deps.Git.Invalidate(&models.Repository{
			RepoType: string(repoType), Namespace: req.Namespace, Name: req.Name,
			FullID: req.Namespace + "/" + req.Name,
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.Namespace + "/" + req.Name})
}

type moveRepoRequest struct {
	Type     string `json:"type"`
	FromRepo string `json:"fromRepo"`
	ToRepo   string `json:"toRepo"`
}

// MoveRepo handles POST /api/repos/move.
func (h *Handler) MoveRepo(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req moveRepoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	repoType, err := models.ParseRepoType(req.Type)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %s", models.ErrValidation, err))
		return
	}

	moved, err := h.deps.Registry.Move(r.Context(), user, repoType, req.FromRepo, req.ToRepo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.deps.Git != nil {
		fromNamespace, fromName, _ := strings.Cut(req.FromRepo, "/")
		h.deps.Git.Invalidate(&models.Repository{
			RepoType: string(repoType), Namespace: fromNamespace, Name: fromName, FullID: req.FromRepo,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":     fmt.Sprintf("%s/%s/%s", h.deps.BaseURL, repoType.Plural(), moved.FullID),
		"repo_id": moved.FullID,
	})
}

type repoSettings struct {
	Private           *bool   `json:"private,omitempty"`
	LFSThresholdBytes *int64  `json:"lfs_threshold_bytes,omitempty"`
	LFSKeepVersions   *int    `json:"lfs_keep_versions,omitempty"`
	LFSSuffixRules    *string `json:"lfs_suffix_rules,omitempty"`
}

// GetSettings handles GET /api/{type}s/{namespace}/{name}/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	repo, err := h.loadRepoForRead(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	private := repo.Private
	writeJSON(w, http.StatusOK, repoSettings{
		Private:           &private,
		LFSThresholdBytes: repo.LFSThresholdBytes,
		LFSKeepVersions:   repo.LFSKeepVersions,
		LFSSuffixRules:    repo.LFSSuffixRules,
	})
}

// UpdateSettings handles PUT /api/{type}s/{namespace}/{name}/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	repoType, namespace, name, err := repoCoords(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req repoSettings
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	repo, warning, err := h.deps.Registry.UpdateSettings(r.Context(), user, repoType, namespace+"/"+name, registry.Settings{
		Private:           req.Private,
		LFSThresholdBytes: req.LFSThresholdBytes,
		LFSKeepVersions:   req.LFSKeepVersions,
		LFSSuffixRules:    req.LFSSuffixRules,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	body := map[string]any{"repo_id": repo.FullID, "private": repo.Private}
	if warning != "" {
		body["warning"] = warning
	}
	writeJSON(w, http.StatusOK, body)
}

// ListRepos handles GET /api/{type}s. Results merge local repositories
// visible to the caller with listings from enabled fallback sources.
func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	repoType, err := repoTypeParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params := r.URL.Query()

	filter := store.RepoFilter{
		Type:      string(repoType),
		Namespace: params.Get("author"),
		Limit:     listingPageSize,
	}
	if raw := params.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if user := currentUser(r); user != nil {
		filter.PrivateFor = h.visibleNamespaces(r, user)
		filter.AllPrivate = user.IsAdmin()
	}

	repos, err := h.deps.Store.ListRepos(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	local := make([]map[string]any, 0, len(repos))
	for _, repo := range repos {
		local = append(local, map[string]any{
			"id":           repo.FullID,
			"author":       repo.Namespace,
			"private":      repo.Private,
			"createdAt":    repo.CreatedAt,
			"lastModified": repo.UpdatedAt,
		})
	}

	merged := local
	if h.deps.Fallback != nil {
		external, err := h.deps.Fallback.List(r.Context(), string(repoType), params)
		if err != nil {
			logger.WarnCtx(r.Context(), "Fallback listing failed", "type", repoType, "error", err)
		} else {
			merged = fallback.MergeListings(local, external)
		}
	}
	writeJSON(w, http.StatusOK, merged)
}

// visibleNamespaces returns the namespaces whose private repositories
// the user may see: their own plus every org membership.
func (h *Handler) visibleNamespaces(r *http.Request, user *models.User) []string {
	namespaces := []string{user.Username}
	memberships, err := h.deps.Store.ListUserMemberships(r.Context(), user.Username)
	if err != nil {
		logger.WarnCtx(r.Context(), "Failed to list memberships", "user", user.Username, "error", err)
		return namespaces
	}
	for _, m := range memberships {
		namespaces = append(namespaces, m.OrgName)
	}
	return namespaces
}
