// Package health provides liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MyTechPlan/oc-client/internal/metrics"
	"go.uber.org/zap"
)

// DefaultCheckTimeout bounds a single readiness probe.
const DefaultCheckTimeout = 5 * time.Second

// Pinger is the upstream dependency readiness depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck serves the health endpoints. Readiness is probed on demand.
type HealthCheck struct {
	upstream     Pinger
	metrics      *metrics.Metrics
	logger       *zap.Logger
	checkTimeout time.Duration
}

// NewHealthCheck creates a new HealthCheck instance. m may be nil.
func NewHealthCheck(upstream Pinger, m *metrics.Metrics, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		upstream:     upstream,
		metrics:      m,
		logger:       logger,
		checkTimeout: DefaultCheckTimeout,
	}
}

// LivenessResponse represents the response for the liveness check.
type LivenessResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the response for the readiness check.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// LivenessHandler handles GET /health requests.
// Returns 200 OK if the process is running.
func (hc *HealthCheck) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Status: "healthy"})
}

// ReadinessHandler handles GET /ready requests.
// Returns 200 OK if the repository host answers.
func (hc *HealthCheck) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), hc.checkTimeout)
	defer cancel()

	if err := hc.upstream.Ping(ctx); err != nil {
		hc.logger.Warn("readiness check failed", zap.Error(err))
		hc.setHealthStatus(false)
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{
			Status: "not_ready",
			Checks: map[string]string{"github": "unhealthy"},
			Error:  err.Error(),
		})
		return
	}

	hc.setHealthStatus(true)
	writeJSON(w, http.StatusOK, ReadinessResponse{
		Status: "ready",
		Checks: map[string]string{"github": "healthy"},
	})
}

func (hc *HealthCheck) setHealthStatus(healthy bool) {
	if hc.metrics != nil {
		hc.metrics.SetHealthStatus(healthy)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
