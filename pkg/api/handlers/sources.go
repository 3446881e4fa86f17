package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

type sourceRequest struct {
	Name       string `json:"name"`
	Endpoint   string `json:"endpoint"`
	SourceType string `json:"source_type,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	Token      string `json:"token,omitempty"`
	Priority   int    `json:"priority"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

func (r *sourceRequest) validate() error {
	if r.Name == "" || r.Endpoint == "" {
		return fmt.Errorf("%w: name and endpoint are required", models.ErrValidation)
	}
	switch r.SourceType {
	case "", models.SourceTypeHuggingFace, models.SourceTypeKohakuHub:
	default:
		return fmt.Errorf("%w: unknown source type %q", models.ErrValidation, r.SourceType)
	}
	return nil
}

// sourceView strips the upstream token out of admin responses.
func sourceView(src *models.FallbackSource) map[string]any {
	return map[string]any{
		"name":        src.Name,
		"endpoint":    src.Endpoint,
		"source_type": src.SourceType,
		"namespace":   src.Namespace,
		"priority":    src.Priority,
		"enabled":     src.Enabled,
		"has_token":   src.Token != "",
	}
}

// ListFallbackSources handles GET /api/admin/fallback-sources.
func (h *Handler) ListFallbackSources(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	sources, err := h.deps.Store.ListFallbackSources(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]map[string]any, 0, len(sources))
	for _, src := range sources {
		views = append(views, sourceView(src))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": views})
}

// CreateFallbackSource handles POST /api/admin/fallback-sources.
func (h *Handler) CreateFallbackSource(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	var req sourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = models.SourceTypeHuggingFace
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	src := &models.FallbackSource{
		Name:       req.Name,
		Endpoint:   req.Endpoint,
		SourceType: sourceType,
		Namespace:  req.Namespace,
		Token:      req.Token,
		Priority:   req.Priority,
		Enabled:    enabled,
	}
	if _, err := h.deps.Store.CreateFallbackSource(r.Context(), src); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sourceView(src))
}

// UpdateFallbackSource handles PUT /api/admin/fallback-sources/{name}.
func (h *Handler) UpdateFallbackSource(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	name := chi.URLParam(r, "name")
	src, err := h.deps.Store.GetFallbackSource(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req sourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SourceType != "" && req.SourceType != models.SourceTypeHuggingFace && req.SourceType != models.SourceTypeKohakuHub {
		writeError(w, r, fmt.Errorf("%w: unknown source type %q", models.ErrValidation, req.SourceType))
		return
	}

	if req.Endpoint != "" {
		src.Endpoint = req.Endpoint
	}
	if req.SourceType != "" {
		src.SourceType = req.SourceType
	}
	if req.Token != "" {
		src.Token = req.Token
	}
	src.Namespace = req.Namespace
	src.Priority = req.Priority
	if req.Enabled != nil {
		src.Enabled = *req.Enabled
	}
	if err := h.deps.Store.UpdateFallbackSource(r.Context(), src); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sourceView(src))
}

// DeleteFallbackSource handles DELETE /api/admin/fallback-sources/{name}.
func (h *Handler) DeleteFallbackSource(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Store.DeleteFallbackSource(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
