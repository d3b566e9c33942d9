package handlers

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/upb/appservice-auth/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	ready  atomic.Bool
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler that reports ready
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	h := &HealthHandler{logger: logger}
	h.ready.Store(true)
	return h
}

// SetReady flips readiness, e.g. false while draining on shutdown
func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{"server": "ready"},
	}

	if !h.ready.Load() {
		response.Status = "unhealthy"
		response.Checks["server"] = "shutting_down"
		if err := utils.WriteServiceUnavailable(w, response); err != nil {
			h.logger.Error("failed to write readiness response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
