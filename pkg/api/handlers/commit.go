package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

// Commit handles POST /api/{type}s/{namespace}/{name}/commit/{branch}.
// The body is the NDJSON commit stream.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	repo, user, err := h.loadRepoForWrite(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	branch := chi.URLParam(r, "branch")

	result, err := h.deps.Commits.Process(r.Context(), user, repo, branch, r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.deps.Git != nil {
		h.deps.Git.Invalidate(repo)
	}
	writeJSON(w, http.StatusOK, result)
}

type preuploadRequest struct {
	Files []preuploadFile `json:"files"`
}

type preuploadFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sample string `json:"sample,omitempty"`
}

type preuploadResult struct {
	Path       string `json:"path"`
	UploadMode string `json:"uploadMode"` // "regular" or "lfs"
}

// Preupload handles POST /api/{type}s/{namespace}/{name}/preupload/{revision}.
// It classifies each file as a regular inline upload or an LFS transfer
// by the repo's threshold and suffix rules.
func (h *Handler) Preupload(w http.ResponseWriter, r *http.Request) {
	repo, _, err := h.loadRepoForWrite(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req preuploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	threshold := h.deps.LFSThresholdBytes
	if repo.LFSThresholdBytes != nil {
		threshold = *repo.LFSThresholdBytes
	}
	rules := repo.SuffixRules()
	if rules == nil {
		rules = h.deps.LFSSuffixRules
	}

	results := make([]preuploadResult, 0, len(req.Files))
	for _, file := range req.Files {
		mode := "regular"
		if file.Size > threshold || lfs.MatchesSuffixRule(file.Path, rules) {
			mode = "lfs"
		}
		results = append(results, preuploadResult{Path: file.Path, UploadMode: mode})
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": results})
}

// ValidateYAML handles POST /api/validate-yaml. Frontmatter rendering
// happens outside the hub; clients only need a well-formed answer.
func (h *Handler) ValidateYAML(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"errors":   []string{},
		"warnings": []string{},
	})
}
