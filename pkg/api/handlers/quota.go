package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
)

// GetQuota handles GET /api/quota/{namespace}. Usage is public for
// public buckets; the full view needs namespace admin rights.
func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	ns, err := h.deps.Store.GetNamespace(r.Context(), namespace)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

type quotaUpdateRequest struct {
	PrivateQuotaBytes *int64 `json:"private_quota_bytes"`
	PublicQuotaBytes  *int64 `json:"public_quota_bytes"`
}

// UpdateQuota handles PUT /api/quota/{namespace}. Only site admins set
// limits; nil means unlimited.
func (h *Handler) UpdateQuota(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	namespace := chi.URLParam(r, "namespace")
	var req quotaUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.deps.Store.SetNamespaceQuota(r.Context(), namespace, req.PrivateQuotaBytes, req.PublicQuotaBytes); err != nil {
		writeError(w, r, err)
		return
	}
	ns, err := h.deps.Store.GetNamespace(r.Context(), namespace)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

// RecalculateQuota handles POST /api/quota/{namespace}/recalculate.
// Usage counters are recomputed from actual repository contents.
func (h *Handler) RecalculateQuota(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	namespace := chi.URLParam(r, "namespace")
	ok, err := h.perms.CanAdminNamespace(r.Context(), user, namespace)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, auth.ErrPermissionDenied)
		return
	}

	privateUsed, publicUsed, err := h.deps.Quotas.Recompute(r.Context(), namespace)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"namespace":          namespace,
		"private_used_bytes": privateUsed,
		"public_used_bytes":  publicUsed,
	})
}
