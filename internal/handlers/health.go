package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/database"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
	"github.com/rs/zerolog/log"
)

// HealthHandler serves liveness and readiness probes. Liveness is
// unconditional; readiness checks Redis, the only dependency the
// console owns. The platform API is deliberately not probed: its
// outage degrades the console but the console itself is still able to
// serve the login page and cached reads.
type HealthHandler struct {
	redis *database.RedisDB
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(redis *database.RedisDB) *HealthHandler {
	return &HealthHandler{redis: redis}
}

// HealthResponse is the probe payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// Health is the liveness probe.
//
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe.
//
// GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	statusCode := http.StatusOK
	status := "ok"

	if err := h.redis.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Redis health check failed")
		services["redis"] = "unhealthy"
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	} else {
		services["redis"] = "healthy"
	}

	utils.RespondWithJSON(w, r, statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	})
}
