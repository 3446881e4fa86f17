package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// newInvitationToken returns a fresh URL-safe invitation token.
func newInvitationToken() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

type createInvitationRequest struct {
	Action    string     `json:"action"` // "register" or "join_org"
	OrgName   string     `json:"org_name,omitempty"`
	Role      string     `json:"role,omitempty"`
	MaxUses   int        `json:"max_uses,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateInvitation handles POST /api/invitations/create. Register
// invitations need the site admin role; join_org invitations need admin
// rights on the target organization.
func (h *Handler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req createInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var user *models.User
	var err error
	switch req.Action {
	case models.InvitationActionRegister:
		user, err = requireAdmin(r)
	case models.InvitationActionJoinOrg:
		if req.OrgName == "" {
			writeError(w, r, fmt.Errorf("%w: org_name is required for join_org invitations", models.ErrValidation))
			return
		}
		if req.Role != "" && !models.OrgRole(req.Role).IsValid() {
			writeError(w, r, fmt.Errorf("%w: invalid role %q", models.ErrValidation, req.Role))
			return
		}
		user, err = h.requireOrgAdmin(r, req.OrgName)
	default:
		writeError(w, r, fmt.Errorf("%w: unknown action %q", models.ErrValidation, req.Action))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := newInvitationToken()
	if err != nil {
		writeError(w, r, err)
		return
	}
	maxUses := req.MaxUses
	if maxUses < 1 && maxUses != models.UnlimitedUses {
		writeError(w, r, fmt.Errorf("%w: max_uses must be positive or -1 for unlimited", models.ErrValidation))
		return
	}
	inv := &models.Invitation{
		Token:     token,
		Action:    req.Action,
		OrgName:   req.OrgName,
		Role:      req.Role,
		CreatedBy: user.ID,
		MaxUses:   maxUses,
		ExpiresAt: req.ExpiresAt,
	}
	if _, err := h.deps.Store.CreateInvitation(r.Context(), inv); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

type acceptInvitationRequest struct {
	Token string `json:"token"`
}

// AcceptInvitation handles POST /api/invitations/accept for signed-in
// users joining an organization. Register invitations are consumed by
// the registration endpoint instead.
func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req acceptInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	inv, err := h.deps.Store.ConsumeInvitation(r.Context(), req.Token, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if inv.Action != models.InvitationActionJoinOrg {
		writeError(w, r, fmt.Errorf("%w: invitation is not a join_org invitation", models.ErrValidation))
		return
	}

	role := models.OrgRole(inv.Role)
	if !role.IsValid() {
		role = models.RoleMember
	}
	if err := h.deps.Store.AddMember(r.Context(), inv.OrgName, user.Username, role); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"org":  inv.OrgName,
		"role": string(role),
	})
}

// ListInvitations handles GET /api/invitations (site admin only).
func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	invitations, err := h.deps.Store.ListInvitations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": invitations})
}

// DeleteInvitation handles DELETE /api/invitations/{token}. The creator
// and site admins may revoke.
func (h *Handler) DeleteInvitation(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	token := chi.URLParam(r, "token")

	inv, err := h.deps.Store.GetInvitation(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if inv.CreatedBy != user.ID && !user.IsAdmin() {
		writeError(w, r, auth.ErrPermissionDenied)
		return
	}
	if err := h.deps.Store.DeleteInvitation(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
