package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Billy-Davies-2/draft-board-planner/internal/dal"
)

// Check probes one dependency
type Check struct {
	Name     string
	Critical bool // a failing critical check makes the service not ready
	Probe    func(ctx context.Context) error
}

// HealthHandlers serves the health, liveness and readiness endpoints
type HealthHandlers struct {
	dal    dal.BoardDAL
	checks []Check
}

// NewHealthHandlers creates health handlers. The board store is always
// checked; checks adds optional dependencies such as ClickHouse.
func NewHealthHandlers(d dal.BoardDAL, checks ...Check) *HealthHandlers {
	return &HealthHandlers{dal: d, checks: checks}
}

// Register mounts the health endpoints on mux
func (h *HealthHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/healthz", h.Liveness)
	mux.HandleFunc("/readyz", h.Readiness)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (h *HealthHandlers) database(ctx context.Context) error {
	if p, ok := h.dal.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	_, err := h.dal.GetState()
	return err
}

// Health reports every dependency
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	// Only critical failures make the service unhealthy; the rest degrade it
	record := func(name string, critical bool, err error) {
		if err == nil {
			checks[name] = map[string]any{"status": "healthy"}
			return
		}
		checks[name] = map[string]any{"status": "unhealthy", "error": err.Error()}
		if critical {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else if status == "ok" {
			status = "degraded"
		}
	}

	if h.dal != nil {
		record("database", true, h.database(ctx))
	} else {
		checks["database"] = map[string]any{"status": "not_configured"}
	}
	for _, c := range h.checks {
		record(c.Name, c.Critical, c.Probe(ctx))
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// Liveness handles Kubernetes liveness probes. It does not check dependencies.
func (h *HealthHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness handles Kubernetes readiness probes
func (h *HealthHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	reason := ""
	if h.dal != nil {
		if err := h.database(ctx); err != nil {
			reason = "database_unavailable"
		}
	}
	for _, c := range h.checks {
		if reason != "" {
			break
		}
		if c.Critical && c.Probe(ctx) != nil {
			reason = c.Name + "_unavailable"
		}
	}

	if reason != "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"reason":    reason,
			"timestamp": time.Now().Unix(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
