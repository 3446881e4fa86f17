package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

type branchRequest struct {
	Type   string `json:"type"`
	Repo   string `json:"repo"` // namespace/name
	Branch string `json:"branch"`

	// Source seeds branch creation; Revision targets revert/cherry-pick.
	Source   string `json:"source,omitempty"`
	Revision string `json:"revision,omitempty"`
}

func (h *Handler) branchArgs(r *http.Request) (*branchRequest, models.RepoType, *models.User, error) {
	user, err := requireUser(r)
	if err != nil {
		return nil, "", nil, err
	}
	var req branchRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, "", nil, err
	}
	repoType, err := models.ParseRepoType(req.Type)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%w: %s", models.ErrValidation, err)
	}
	if !strings.Contains(req.Repo, "/") || req.Branch == "" {
		return nil, "", nil, fmt.Errorf("%w: repo and branch are required", models.ErrValidation)
	}
	return &req, repoType, user, nil
}

// invalidateGit drops cached packs after a branch mutation.
func (h *Handler) invalidateGit(repoType models.RepoType, fullID string) {
	if h.deps.Git == nil {
		return
	}
	namespace, name, _ := strings.Cut(fullID, "/")
	h.deps.Git.Invalidate(&models.Repository{
		RepoType: string(repoType), Namespace: namespace, Name: name, FullID: fullID,
	})
}

// CreateBranch handles POST /api/repos/branches/create.
func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	req, repoType, user, err := h.branchArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Registry.CreateBranch(r.Context(), user, repoType, req.Repo, req.Branch, req.Source); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"branch": req.Branch})
}

// DeleteBranch handles POST /api/repos/branches/delete.
func (h *Handler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	req, repoType, user, err := h.branchArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Registry.DeleteBranch(r.Context(), user, repoType, req.Repo, req.Branch); err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateGit(repoType, req.Repo)
	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.Branch})
}

// RevertBranch handles POST /api/repos/branches/revert.
func (h *Handler) RevertBranch(w http.ResponseWriter, r *http.Request) {
	req, repoType, user, err := h.branchArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Revision == "" {
		writeError(w, r, fmt.Errorf("%w: revision is required", models.ErrValidation))
		return
	}
	if err := h.deps.Registry.RevertBranch(r.Context(), user, repoType, req.Repo, req.Branch, req.Revision); err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateGit(repoType, req.Repo)
	writeJSON(w, http.StatusOK, map[string]string{"branch": req.Branch})
}

// ResetBranch handles POST /api/repos/branches/reset. It drops the
// branch's uncommitted staging area.
func (h *Handler) ResetBranch(w http.ResponseWriter, r *http.Request) {
	req, repoType, user, err := h.branchArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Registry.ResetBranch(r.Context(), user, repoType, req.Repo, req.Branch); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"branch": req.Branch})
}

// CherryPickBranch handles POST /api/repos/branches/cherry-pick.
func (h *Handler) CherryPickBranch(w http.ResponseWriter, r *http.Request) {
	req, repoType, user, err := h.branchArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Revision == "" {
		writeError(w, r, fmt.Errorf("%w: revision is required", models.ErrValidation))
		return
	}
	commit, err := h.deps.Registry.CherryPickBranch(r.Context(), user, repoType, req.Repo, req.Branch, req.Revision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateGit(repoType, req.Repo)
	writeJSON(w, http.StatusOK, map[string]any{"branch": req.Branch, "commit": commit.ID})
}
