package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// minPasswordLength is the shortest accepted password.
const minPasswordLength = 8

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`

	// Invitation is required when the server runs invitation-gated.
	Invitation string `json:"invitation,omitempty"`
}

// Register handles POST /api/users/register. When registration is
// invitation-gated, one invitation use is consumed atomically; a
// join_org invitation additionally adds the new user to its org.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, r, fmt.Errorf("%w: password must be at least %d characters", models.ErrValidation, minPasswordLength))
		return
	}

	var invitation *models.Invitation
	if h.deps.RequireInvitation || req.Invitation != "" {
		if req.Invitation == "" {
			writeError(w, r, fmt.Errorf("%w: registration requires an invitation", models.ErrValidation))
			return
		}
		inv, err := h.deps.Store.ConsumeInvitation(r.Context(), req.Invitation, time.Now())
		if err != nil {
			writeError(w, r, err)
			return
		}
		invitation = inv
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		Enabled:      true,
		Role:         string(models.RoleUser),
	}
	if err := user.Validate(); err != nil {
		writeError(w, r, fmt.Errorf("%w: %s", models.ErrValidation, err))
		return
	}
	if _, err := h.deps.Store.CreateUser(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}

	if invitation != nil && invitation.Action == models.InvitationActionJoinOrg {
		role := models.OrgRole(invitation.Role)
		if !role.IsValid() {
			role = models.RoleMember
		}
		if err := h.deps.Store.AddMember(r.Context(), invitation.OrgName, user.Username, role); err != nil {
			logger.WarnCtx(r.Context(), "Failed to apply join_org invitation",
				"user", user.Username, "org", invitation.OrgName, "error", err)
		}
	}

	logger.InfoCtx(r.Context(), "Registered user", "user", user.Username)
	writeJSON(w, http.StatusCreated, map[string]any{
		"username": user.Username,
		"id":       user.ID,
	})
}

// GetUserProfile handles GET /api/users/{username}. Contact and quota
// fields are only visible to the user themselves and site admins.
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.deps.Store.GetUser(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body := map[string]any{
		"username":     user.Username,
		"display_name": user.GetDisplayName(),
		"created_at":   user.CreatedAt,
	}
	if caller := currentUser(r); caller != nil && (caller.Username == username || caller.IsAdmin()) {
		body["email"] = user.Email
		body["email_verified"] = user.EmailVerified
		body["private_used_bytes"] = user.PrivateUsedBytes
		body["public_used_bytes"] = user.PublicUsedBytes
	}
	writeJSON(w, http.StatusOK, body)
}
