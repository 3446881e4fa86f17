package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kohakuhub/kohakuhub/pkg/blobstore"
	"github.com/kohakuhub/kohakuhub/pkg/commitengine"
	"github.com/kohakuhub/kohakuhub/pkg/fallback"
	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", models.ErrValidation, http.StatusBadRequest, "validation-error"},
		{"wrapped validation", fmt.Errorf("%w: bad name", models.ErrValidation), http.StatusBadRequest, "validation-error"},
		{"auth required", auth.ErrAuthRequired, http.StatusUnauthorized, "auth-required"},
		{"bad credentials", models.ErrInvalidCredentials, http.StatusUnauthorized, "auth-required"},
		{"disabled user", models.ErrUserDisabled, http.StatusUnauthorized, "auth-required"},
		{"permission denied", auth.ErrPermissionDenied, http.StatusForbidden, "permission-denied"},
		{"repo not found", models.ErrRepoNotFound, http.StatusNotFound, "not-found"},
		{"backend not found", lakefs.ErrNotFound, http.StatusNotFound, "not-found"},
		{"blob not found", blobstore.ErrObjectNotFound, http.StatusNotFound, "not-found"},
		{"fallback miss", fallback.ErrNotAvailable, http.StatusNotFound, "not-found"},
		{"duplicate repo", models.ErrDuplicateRepo, http.StatusConflict, "conflict"},
		{"namespace conflict", models.ErrNamespaceNameConflict, http.StatusConflict, "conflict"},
		{"last super admin", models.ErrLastSuperAdmin, http.StatusConflict, "conflict"},
		{"stale parent", commitengine.ErrStaleParent, http.StatusConflict, "conflict"},
		{"invitation exhausted", models.ErrInvitationExhausted, http.StatusConflict, "conflict"},
		{"precondition", lakefs.ErrPrecondition, http.StatusPreconditionFailed, "precondition-failed"},
		{"lfs missing", lfs.ErrObjectMissing, http.StatusUnprocessableEntity, "lfs-object-missing"},
		{"lfs size mismatch", lfs.ErrSizeMismatch, http.StatusUnprocessableEntity, "lfs-object-missing"},
		{"backend down", lakefs.ErrUnavailable, http.StatusServiceUnavailable, "backend-unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal-error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
		})
	}
}

func TestErrorStatusExplicit(t *testing.T) {
	status, code := errorStatus(errorf(http.StatusTeapot, "teapot", "short and stout"))
	if status != http.StatusTeapot || code != "teapot" {
		t.Errorf("got %d/%q, want 418/teapot", status, code)
	}
}

func TestWriteErrorQuotaBody(t *testing.T) {
	err := &models.QuotaExceededError{Namespace: "alice", Requested: 100, Available: 10}

	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "quota-exceeded" {
		t.Errorf("X-Error-Code = %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["namespace"] != "alice" {
		t.Errorf("namespace = %v", body["namespace"])
	}
	if body["requested"].(float64) != 100 || body["available"].(float64) != 10 {
		t.Errorf("unexpected quota fields: %v", body)
	}
}

func TestWriteErrorRedactsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("dsn=postgres://secret"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("internal detail leaked: %s", rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "internal error" {
		t.Errorf("error = %v, want redacted message", body["error"])
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var v struct{}
	err := decodeJSON(r, &v)
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}
