// Package health provides shared types for health check responses.
package health

// Response represents the liveness response from GET /health.
type Response struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Component is one dependency's status in the readiness response.
type Component struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// ReadyResponse represents the readiness response from GET /health/ready.
type ReadyResponse struct {
	Status     string      `json:"status"`
	Components []Component `json:"components"`
}

// Healthy reports whether the overall status is "healthy".
func (r *ReadyResponse) Healthy() bool {
	return r.Status == "healthy"
}
