package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// commitsPageSize is the default commit log page.
const commitsPageSize = 50

// fallbackWanted reports whether a local miss may consult external
// sources. Clients opt out with ?fallback=false.
func (h *Handler) fallbackWanted(r *http.Request) bool {
	return h.deps.Fallback != nil && r.URL.Query().Get("fallback") != "false"
}

// RepoInfo handles GET /api/{type}s/{namespace}/{name} and its
// /revision/{revision} variant.
func (h *Handler) RepoInfo(w http.ResponseWriter, r *http.Request) {
	revision := chi.URLParam(r, "revision")

	repo, err := h.loadRepoForRead(r)
	if errors.Is(err, models.ErrRepoNotFound) && h.fallbackWanted(r) {
		h.fallbackRepoInfo(w, r, revision)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	var info any
	if revision == "" {
		info, err = h.deps.Registry.Info(r.Context(), repo)
	} else {
		info, err = h.deps.Registry.Revision(r.Context(), repo, revision)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) fallbackRepoInfo(w http.ResponseWriter, r *http.Request, revision string) {
	repoType, namespace, name, err := repoCoords(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	info, err := h.deps.Fallback.RepoInfo(r.Context(), string(repoType), namespace, name, revision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Tree handles GET /api/{type}s/{namespace}/{name}/tree/{revision} with
// an optional trailing path.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	revision := chi.URLParam(r, "revision")
	path := chi.URLParam(r, "*")
	recursive := r.URL.Query().Get("recursive") == "true"

	repo, err := h.loadRepoForRead(r)
	if errors.Is(err, models.ErrRepoNotFound) && h.fallbackWanted(r) {
		h.fallbackTree(w, r, revision, path)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.deps.Registry.Tree(r.Context(), repo, revision, path, recursive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) fallbackTree(w http.ResponseWriter, r *http.Request, revision, path string) {
	repoType, namespace, name, err := repoCoords(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := h.deps.Fallback.Tree(r.Context(), string(repoType), namespace, name, revision, path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Refs handles GET /api/{type}s/{namespace}/{name}/refs.
func (h *Handler) Refs(w http.ResponseWriter, r *http.Request) {
	repo, err := h.loadRepoForRead(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	refs, err := h.deps.Registry.Refs(r.Context(), repo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"branches": refs})
}

// Commits handles GET /api/{type}s/{namespace}/{name}/commits/{revision}.
func (h *Handler) Commits(w http.ResponseWriter, r *http.Request) {
	repo, err := h.loadRepoForRead(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	revision := chi.URLParam(r, "revision")
	amount := commitsPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			amount = n
		}
	}

	page, err := h.deps.Registry.Commits(r.Context(), repo, revision, r.URL.Query().Get("after"), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Enrich backend commits with hub authorship when we logged them.
	commits := make([]map[string]any, 0, len(page.Results))
	for _, commit := range page.Results {
		row := map[string]any{
			"id":      commit.ID,
			"title":   commit.Message,
			"date":    commit.CreationTime(),
			"parents": commit.Parents,
		}
		if logged, err := h.deps.Store.GetCommit(r.Context(), repo.ID, commit.ID); err == nil && logged != nil {
			row["authors"] = []map[string]string{{"user": logged.AuthorName}}
			if logged.Description != "" {
				row["message"] = logged.Description
			}
		} else if commit.Committer != "" {
			row["authors"] = []map[string]string{{"user": commit.Committer}}
		}
		commits = append(commits, row)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"commits": commits,
		"hasMore": page.Pagination.HasMore,
		"next":    page.Pagination.NextOffset,
	})
}
