package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker is implemented by optional backing services
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// NewHealthHandler reports "ok", or "degraded" with 503 when a configured
// service fails its check. Services may be empty.
func NewHealthHandler(services map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		if len(services) > 0 {
			response.Services = make(map[string]string, len(services))
		}
		for name, checker := range services {
			if err := checker.Health(r.Context()); err != nil {
				slog.Error("Health check failed", "service", name, "error", err)
				response.Services[name] = "unhealthy"
				response.Status = "degraded"
				continue
			}
			response.Services[name] = "healthy"
		}

		status := http.StatusOK
		if response.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, status, response)
	}
}

// respondJSON writes data as a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
