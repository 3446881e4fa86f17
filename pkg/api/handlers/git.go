package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/gitbridge"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// GitInfoRefs handles GET /{...}.git/info/refs?service=git-upload-pack
// or git-receive-pack. Advertisements must not be cached.
func (h *Handler) GitInfoRefs(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("service")

	var repo *models.Repository
	var err error
	if service == gitbridge.ReceivePackService {
		repo, _, err = h.loadRepoForWrite(r)
	} else {
		repo, err = h.loadRepoForRead(r)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", fmt.Sprintf("application/x-%s-advertisement", service))
	w.Header().Set("Cache-Control", "no-cache")
	if err := h.deps.Git.Advertise(r.Context(), repo, service, w); err != nil {
		if errors.Is(err, gitbridge.ErrUnknownService) {
			writeError(w, r, fmt.Errorf("%w: unknown service %q", models.ErrValidation, service))
			return
		}
		logger.ErrorCtx(r.Context(), "Git advertisement failed", "repo", repo.FullID, "error", err)
	}
}

// GitUploadPack handles POST /{...}.git/git-upload-pack.
func (h *Handler) GitUploadPack(w http.ResponseWriter, r *http.Request) {
	repo, err := h.loadRepoForRead(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-git-upload-pack-result")
	w.Header().Set("Cache-Control", "no-cache")
	if err := h.deps.Git.UploadPack(r.Context(), repo, r.Body, w); err != nil {
		// Headers are gone; the bridge already wrote an ERR pkt-line
		// where the protocol allows one.
		logger.ErrorCtx(r.Context(), "Git upload-pack failed", "repo", repo.FullID, "error", err)
	}
}

// GitReceivePack handles POST /{...}.git/git-receive-pack.
func (h *Handler) GitReceivePack(w http.ResponseWriter, r *http.Request) {
	repo, _, err := h.loadRepoForWrite(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-git-receive-pack-result")
	w.Header().Set("Cache-Control", "no-cache")
	if err := h.deps.Git.ReceivePack(r.Context(), repo, r.Body, w); err != nil {
		logger.ErrorCtx(r.Context(), "Git receive-pack failed", "repo", repo.FullID, "error", err)
	}
}

// GitHead handles GET /{...}.git/HEAD.
func (h *Handler) GitHead(w http.ResponseWriter, r *http.Request) {
	if _, err := h.loadRepoForRead(r); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, h.deps.Git.HeadRef())
}
