package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeChecker struct{ err error }

func (f *fakeChecker) Healthcheck(ctx context.Context) error { return f.err }

func TestLiveness(t *testing.T) {
	h := &Handler{deps: Deps{Version: "1.2.3"}}

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "healthy" || resp["version"] != "1.2.3" {
		t.Errorf("unexpected body: %v", resp)
	}
}

func TestReadiness(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		h := &Handler{deps: Deps{
			Store:         newFakeStore(),
			BackendHealth: &fakeChecker{},
		}}

		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("backend down means not ready", func(t *testing.T) {
		h := &Handler{deps: Deps{
			Store:         newFakeStore(),
			BackendHealth: &fakeChecker{err: errors.New("connection refused")},
		}}

		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}

		var resp struct {
			Status     string `json:"status"`
			Components []struct {
				Name   string `json:"name"`
				Status string `json:"status"`
			} `json:"components"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if resp.Status != "unhealthy" {
			t.Errorf("status = %q", resp.Status)
		}
		for _, c := range resp.Components {
			switch c.Name {
			case "store":
				if c.Status != "healthy" {
					t.Errorf("store = %q, want healthy", c.Status)
				}
			case "backend":
				if c.Status != "unhealthy" {
					t.Errorf("backend = %q, want unhealthy", c.Status)
				}
			}
		}
	})

	t.Run("store failure reported", func(t *testing.T) {
		fs := newFakeStore()
		fs.healthErr = errors.New("database locked")
		h := &Handler{deps: Deps{Store: fs}}

		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})
}
