package handlers

import (
	"context"
	"net/http"
	"time"
)

// healthcheckTimeout bounds dependency probes during readiness checks.
const healthcheckTimeout = 5 * time.Second

// HealthChecker is anything that can report its own availability.
type HealthChecker interface {
	Healthcheck(ctx context.Context) error
}

// componentHealth is one dependency's status in the readiness response.
type componentHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Liveness handles GET /health. It succeeds whenever the process can
// serve HTTP.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "kohakuhub",
		"version": h.deps.Version,
	})
}

// Readiness handles GET /health/ready. The control-plane store and the
// branch/commit backend are probed with a bounded timeout.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthcheckTimeout)
	defer cancel()

	components := []componentHealth{
		check(ctx, "store", h.deps.Store),
	}
	if h.deps.BackendHealth != nil {
		components = append(components, check(ctx, "backend", h.deps.BackendHealth))
	}

	allHealthy := true
	for _, c := range components {
		if c.Status != "healthy" {
			allHealthy = false
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}
	writeJSON(w, status, map[string]any{
		"status":     overall,
		"components": components,
	})
}

func check(ctx context.Context, name string, checker HealthChecker) componentHealth {
	start := time.Now()
	err := checker.Healthcheck(ctx)
	health := componentHealth{Name: name, Latency: time.Since(start).String()}
	if err != nil {
		health.Status = "unhealthy"
		health.Error = err.Error()
		return health
	}
	health.Status = "healthy"
	return health
}

// Version handles GET /api/version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "kohakuhub",
		"version": h.deps.Version,
	})
}
