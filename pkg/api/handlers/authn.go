package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login, answering with a JWT pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.deps.Store.ValidateCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pair, err := h.deps.JWT.GenerateTokenPair(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Store.UpdateLastLogin(r.Context(), user.Username, time.Now()); err != nil {
		logger.WarnCtx(r.Context(), "Failed to record login", "user", user.Username, "error", err)
	}
	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /api/auth/refresh, rotating a JWT pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	claims, err := h.deps.JWT.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %s", auth.ErrAuthRequired, "invalid refresh token"))
		return
	}
	user, err := h.deps.Store.GetUser(r.Context(), claims.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !user.Enabled {
		writeError(w, r, models.ErrUserDisabled)
		return
	}
	pair, err := h.deps.JWT.GenerateTokenPair(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

type createTokenRequest struct {
	Name string `json:"name"`
}

// CreateToken handles POST /api/auth/tokens. The secret appears in this
// response and nowhere else.
func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == "" {
		writeError(w, r, fmt.Errorf("%w: token name is required", models.ErrValidation))
		return
	}

	secret, err := auth.GenerateAPIToken()
	if err != nil {
		writeError(w, r, err)
		return
	}
	token := &models.Token{
		UserID:    user.ID,
		TokenHash: auth.HashAPIToken(secret),
		Name:      req.Name,
	}
	id, err := h.deps.Store.CreateToken(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"name":  req.Name,
		"token": secret,
	})
}

// ListTokens handles GET /api/auth/tokens.
func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tokens, err := h.deps.Store.ListTokens(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

// DeleteToken handles DELETE /api/auth/tokens/{id}.
func (h *Handler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Store.DeleteToken(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Whoami handles GET /api/whoami-v2 in the shape hub clients expect.
func (h *Handler) Whoami(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	orgs := []map[string]any{}
	memberships, err := h.deps.Store.ListUserMemberships(r.Context(), user.Username)
	if err != nil {
		logger.WarnCtx(r.Context(), "Failed to list memberships", "user", user.Username, "error", err)
	} else {
		for _, m := range memberships {
			orgs = append(orgs, map[string]any{
				"type":      "org",
				"name":      m.OrgName,
				"roleInOrg": m.Role,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type":          "user",
		"name":          user.Username,
		"fullname":      user.GetDisplayName(),
		"email":         user.Email,
		"emailVerified": user.EmailVerified,
		"isAdmin":       user.IsAdmin(),
		"orgs":          orgs,
		"auth":          map[string]any{"type": "access_token"},
	})
}
