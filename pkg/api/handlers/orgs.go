package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

type createOrgRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateOrg handles POST /api/orgs/create. The creator becomes the
// organization's super-admin.
func (h *Handler) CreateOrg(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createOrgRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := models.ValidateNamespaceName(req.Name); err != nil {
		writeError(w, r, fmt.Errorf("%w: %s", models.ErrValidation, err))
		return
	}

	org := &models.Organization{Name: req.Name, Description: req.Description}
	id, err := h.deps.Store.CreateOrg(r.Context(), org, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": org.Name})
}

// GetOrg handles GET /api/orgs/{name}.
func (h *Handler) GetOrg(w http.ResponseWriter, r *http.Request) {
	org, err := h.deps.Store.GetOrg(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	members := make([]map[string]any, 0, len(org.Members))
	for _, m := range org.Members {
		members = append(members, map[string]any{
			"username": m.Username,
			"role":     m.Role,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        org.Name,
		"description": org.Description,
		"created_at":  org.CreatedAt,
		"members":     members,
	})
}

// requireOrgAdmin checks the caller manages the organization. Site
// admins pass unconditionally.
func (h *Handler) requireOrgAdmin(r *http.Request, orgName string) (*models.User, error) {
	user, err := requireUser(r)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}
	membership, err := h.deps.Store.GetMembership(r.Context(), orgName, user.Username)
	if err != nil {
		if errors.Is(err, models.ErrMembershipNotFound) {
			return nil, auth.ErrPermissionDenied
		}
		return nil, err
	}
	if !membership.GetRole().CanAdmin() {
		return nil, auth.ErrPermissionDenied
	}
	return user, nil
}

type memberRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AddMember handles POST /api/orgs/{name}/members.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	orgName := chi.URLParam(r, "name")
	if _, err := h.requireOrgAdmin(r, orgName); err != nil {
		writeError(w, r, err)
		return
	}
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	role := models.OrgRole(req.Role)
	if !role.IsValid() {
		writeError(w, r, fmt.Errorf("%w: invalid role %q", models.ErrValidation, req.Role))
		return
	}

	if err := h.deps.Store.AddMember(r.Context(), orgName, req.Username, role); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": req.Username, "role": req.Role})
}

// UpdateMemberRole handles PUT /api/orgs/{name}/members/{username}.
// Demoting the last super-admin is refused.
func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	orgName := chi.URLParam(r, "name")
	username := chi.URLParam(r, "username")
	if _, err := h.requireOrgAdmin(r, orgName); err != nil {
		writeError(w, r, err)
		return
	}
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	role := models.OrgRole(req.Role)
	if !role.IsValid() {
		writeError(w, r, fmt.Errorf("%w: invalid role %q", models.ErrValidation, req.Role))
		return
	}

	if err := h.deps.Store.UpdateMemberRole(r.Context(), orgName, username, role); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": username, "role": req.Role})
}

// RemoveMember handles DELETE /api/orgs/{name}/members/{username}.
// Members may leave on their own; removing the last super-admin is
// refused either way.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	orgName := chi.URLParam(r, "name")
	username := chi.URLParam(r, "username")

	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user.Username != username {
		if _, err := h.requireOrgAdmin(r, orgName); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := h.deps.Store.RemoveMember(r.Context(), orgName, username); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
