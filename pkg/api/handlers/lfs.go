package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

// lfsContentType is the Git LFS batch API media type.
const lfsContentType = "application/vnd.git-lfs+json"

// LFSBatch handles POST /{type}s/{namespace}/{name}.git/info/lfs/objects/batch.
// Downloads need read access, uploads need write access.
func (h *Handler) LFSBatch(w http.ResponseWriter, r *http.Request) {
	var req lfs.BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var repo *models.Repository
	var err error
	if req.Operation == "upload" {
		repo, _, err = h.loadRepoForWrite(r)
	} else {
		repo, err = h.loadRepoForRead(r)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.deps.LFS.Batch(r.Context(), repo, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", lfsContentType)
	writeJSON(w, http.StatusOK, resp)
}

type lfsVerifyRequest struct {
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

// LFSVerify handles POST /api/{type}s/{namespace}/{name}.git/info/lfs/verify.
func (h *Handler) LFSVerify(w http.ResponseWriter, r *http.Request) {
	repo, _, err := h.loadRepoForWrite(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req lfsVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.deps.LFS.Verify(r.Context(), repo, req.OID, req.Size); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", lfsContentType)
	writeJSON(w, http.StatusOK, map[string]any{"oid": req.OID, "size": req.Size})
}

type lfsCompleteRequest struct {
	Parts []blobstore.CompletedPart `json:"parts"`
}

// LFSMultipartComplete handles
// POST /api/{type}s/{namespace}/{name}.git/info/lfs/multipart/complete.
// The oid, size and uploadId ride on the query string the batch response
// signed into the upload action href.
func (h *Handler) LFSMultipartComplete(w http.ResponseWriter, r *http.Request) {
	repo, _, err := h.loadRepoForWrite(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	oid := r.URL.Query().Get("oid")
	uploadID := r.URL.Query().Get("uploadId")
	size, sizeErr := strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)
	if oid == "" || uploadID == "" || sizeErr != nil {
		writeError(w, r, fmt.Errorf("%w: oid, size and uploadId are required", models.ErrValidation))
		return
	}
	var req lfsCompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.deps.LFS.CompleteMultipart(r.Context(), oid, uploadID, req.Parts); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.LFS.Verify(r.Context(), repo, oid, size); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", lfsContentType)
	writeJSON(w, http.StatusOK, map[string]any{"oid": oid, "size": size})
}

// LFSGC handles POST /api/{type}s/{namespace}/{name}/lfs/gc. Repo admins
// reclaim LFS objects past the version retention window; ?dry_run=true
// reports without deleting.
func (h *Handler) LFSGC(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	repo, err := h.loadRepoForRead(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := h.perms.CanAdminRepo(r.Context(), user, repo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, auth.ErrPermissionDenied)
		return
	}

	result, err := h.deps.LFS.GC(r.Context(), repo, r.URL.Query().Get("dry_run") == "true")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
