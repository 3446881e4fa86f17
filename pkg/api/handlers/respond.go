// Package handlers implements the HuggingFace-compatible HTTP surface.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/commitengine"
	"github.com/kohakuhub/kohakuhub/pkg/fallback"
	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// httpError carries an explicit status for ad-hoc handler failures.
type httpError struct {
	status  int
	code    string
	message string
}

func (e *httpError) Error() string { return e.message }

func errorf(status int, code, format string, args ...any) error {
	return &httpError{status: status, code: code, message: fmt.Sprintf(format, args...)}
}

// writeError translates a domain error into the hub error shape:
// `{"error": msg}` with an X-Error-Code header.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	body := map[string]any{"error": err.Error()}

	var quotaErr *models.QuotaExceededError
	if errors.As(err, &quotaErr) {
		body["namespace"] = quotaErr.Namespace
		body["requested"] = quotaErr.Requested
		body["available"] = quotaErr.Available
	}
	if status >= 500 {
		requestID := middleware.GetReqID(r.Context())
		body["error"] = "internal error"
		body["correlation_id"] = requestID
		logger.ErrorCtx(r.Context(), "Request failed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	w.Header().Set("X-Error-Code", code)
	writeJSON(w, status, body)
}

func errorStatus(err error) (int, string) {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.status, httpErr.code
	}
	var quotaErr *models.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return http.StatusRequestEntityTooLarge, "quota-exceeded"
	}

	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation-error"

	case errors.Is(err, auth.ErrAuthRequired),
		errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrUserDisabled):
		return http.StatusUnauthorized, "auth-required"

	case errors.Is(err, auth.ErrPermissionDenied):
		return http.StatusForbidden, "permission-denied"

	case errors.Is(err, models.ErrRepoNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrOrgNotFound),
		errors.Is(err, models.ErrNamespaceNotFound),
		errors.Is(err, models.ErrMembershipNotFound),
		errors.Is(err, models.ErrTokenNotFound),
		errors.Is(err, models.ErrSSHKeyNotFound),
		errors.Is(err, models.ErrInvitationNotFound),
		errors.Is(err, models.ErrSourceNotFound),
		errors.Is(err, lakefs.ErrNotFound),
		errors.Is(err, blobstore.ErrObjectNotFound),
		errors.Is(err, fallback.ErrNotAvailable):
		return http.StatusNotFound, "not-found"

	case errors.Is(err, models.ErrDuplicateRepo),
		errors.Is(err, models.ErrDuplicateUser),
		errors.Is(err, models.ErrDuplicateOrg),
		errors.Is(err, models.ErrDuplicateMembership),
		errors.Is(err, models.ErrDuplicateToken),
		errors.Is(err, models.ErrDuplicateSSHKey),
		errors.Is(err, models.ErrDuplicateInvitation),
		errors.Is(err, models.ErrDuplicateSource),
		errors.Is(err, models.ErrNamespaceNameConflict),
		errors.Is(err, models.ErrLastSuperAdmin),
		errors.Is(err, models.ErrInvitationExhausted),
		errors.Is(err, models.ErrInvitationExpired),
		errors.Is(err, commitengine.ErrStaleParent),
		errors.Is(err, lakefs.ErrConflict):
		return http.StatusConflict, "conflict"

	case errors.Is(err, lakefs.ErrPrecondition):
		return http.StatusPreconditionFailed, "precondition-failed"

	case errors.Is(err, commitengine.ErrLFSObjectMissing),
		errors.Is(err, lfs.ErrObjectMissing),
		errors.Is(err, lfs.ErrSizeMismatch):
		return http.StatusUnprocessableEntity, "lfs-object-missing"

	case errors.Is(err, lakefs.ErrUnavailable):
		return http.StatusServiceUnavailable, "backend-unavailable"
	}
	return http.StatusInternalServerError, "internal-error"
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", models.ErrValidation)
	}
	return nil
}
