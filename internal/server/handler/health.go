package handler

import (
	"context"
	"net/http"
	"time"
)

// Check probes one backing service.
type Check func(ctx context.Context) error

// HealthHandler reports liveness of the process and its backing services.
type HealthHandler struct {
	checks map[string]Check
}

// NewHealthHandler creates a HealthHandler over named service checks. The
// map may be empty; the endpoint then only signals that the process is up.
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck runs every check with a short deadline and reports per-service
// status. Any failed check turns the overall status to "degraded" with a 503.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			services[name] = err.Error()
			healthy = false
			continue
		}
		services[name] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"services": services,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}
