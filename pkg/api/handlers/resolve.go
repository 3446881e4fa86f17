package handlers

import (
	"errors"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

// Resolve handles GET and HEAD on
// /{type}s/{namespace}/{name}/resolve/{revision}/{path}. GET redirects
// to a presigned download; HEAD answers with file metadata only. Local
// misses fall through to the fallback proxy when enabled.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	revision := chi.URLParam(r, "revision")
	filePath := chi.URLParam(r, "*")

	repo, err := h.loadRepoForRead(r)
	if errors.Is(err, models.ErrRepoNotFound) && h.fallbackWanted(r) {
		h.fallbackResolve(w, r, revision, filePath)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	canonical := lakefs.RepoName(repo.RepoType, repo.Namespace, repo.Name)
	commit, err := h.deps.Backend.ResolveRef(r.Context(), canonical, revision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stat, err := h.deps.Backend.StatObject(r.Context(), canonical, commit.ID, filePath)
	if err != nil {
		if errors.Is(err, lakefs.ErrNotFound) && h.fallbackWanted(r) {
			h.fallbackResolve(w, r, revision, filePath)
			return
		}
		writeError(w, r, err)
		return
	}

	// LFS entries point into the shared object prefix; everything else
	// is addressed by its staged location.
	key := ""
	lfsOID := ""
	if _, parsedKey, err := blobstore.ParseS3URI(stat.PhysicalAddress); err == nil {
		key = parsedKey
		if oid, ok := lfs.OIDFromKey(parsedKey); ok {
			lfsOID = oid
		}
	}
	if key == "" {
		writeError(w, r, errors.New("object has no resolvable physical address"))
		return
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", strconv.FormatInt(stat.SizeBytes, 10))
		w.Header().Set("ETag", `"`+stat.Checksum+`"`)
		w.Header().Set("X-Repo-Commit", commit.ID)
		if lfsOID != "" {
			w.Header().Set("X-Linked-Etag", `"`+lfsOID+`"`)
			w.Header().Set("X-Linked-Size", strconv.FormatInt(stat.SizeBytes, 10))
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	presigned, err := h.deps.Blobs.PresignDownload(r.Context(), key, blobstore.DownloadOptions{
		Filename: path.Base(filePath),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Repo-Commit", commit.ID)
	http.Redirect(w, r, presigned.URL, http.StatusFound)
}

// fallbackResolve redirects the download to an external source.
func (h *Handler) fallbackResolve(w http.ResponseWriter, r *http.Request, revision, filePath string) {
	repoType, namespace, name, err := repoCoords(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	target, err := h.deps.Fallback.ResolveURL(r.Context(), string(repoType), namespace, name, revision, filePath)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
