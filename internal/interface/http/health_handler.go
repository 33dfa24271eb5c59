package http

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether one backing dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness probes with per-dependency status.
type HealthHandler struct {
	version string
	checks  map[string]Pinger
}

// NewHealthHandler wires the health endpoint. The checks map is keyed by
// dependency name as it should appear in the response.
func NewHealthHandler(version string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Check handles GET /healthz. Any failing dependency turns the whole answer
// into 503 so a load balancer stops routing here.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	message := "ok"
	if status != http.StatusOK {
		message = "degraded"
	}

	writeJSON(w, status, message, map[string]interface{}{
		"version":      h.version,
		"dependencies": deps,
	})
}
