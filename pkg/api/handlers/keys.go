package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/ssh"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// allowedKeyTypes is the set of SSH public key algorithms accepted for
// registration.
var allowedKeyTypes = map[string]bool{
	"ssh-rsa":             true,
	"ssh-dss":             true,
	"ecdsa-sha2-nistp256": true,
	"ecdsa-sha2-nistp384": true,
	"ecdsa-sha2-nistp521": true,
	"ssh-ed25519":         true,
}

type addKeyRequest struct {
	Key   string `json:"key"`
	Title string `json:"title,omitempty"`
}

// AddSSHKey handles POST /api/user/keys. The key body is parsed in
// authorized_keys format; the stored fingerprint is the SHA256 base64
// form, unique per user.
func (h *Handler) AddSSHKey(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req addKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	publicKey, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(strings.TrimSpace(req.Key)))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: malformed public key", models.ErrValidation))
		return
	}
	keyType := publicKey.Type()
	if !allowedKeyTypes[keyType] {
		writeError(w, r, fmt.Errorf("%w: unsupported key type %q", models.ErrValidation, keyType))
		return
	}

	title := req.Title
	if title == "" {
		title = comment
	}
	key := &models.SSHKey{
		UserID:      user.ID,
		Title:       title,
		PublicKey:   strings.TrimSpace(req.Key),
		Fingerprint: ssh.FingerprintSHA256(publicKey),
		KeyType:     keyType,
	}
	id, err := h.deps.Store.CreateSSHKey(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          id,
		"title":       key.Title,
		"fingerprint": key.Fingerprint,
		"key_type":    key.KeyType,
	})
}

// ListSSHKeys handles GET /api/user/keys.
func (h *Handler) ListSSHKeys(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	keys, err := h.deps.Store.ListSSHKeys(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// DeleteSSHKey handles DELETE /api/user/keys/{id}.
func (h *Handler) DeleteSSHKey(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.deps.Store.DeleteSSHKey(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
