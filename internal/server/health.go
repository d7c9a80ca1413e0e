package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	WebSearch string `json:"web_search,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker is a backend connectivity probe. The storage layer and
// the web search adapter implement it via their Health methods.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewHealthHandler serves /health: 200 when the vector store answers,
// 503 otherwise. A nil web checker omits the web_search field; a failing
// web probe is reported but does not fail the endpoint, since web search
// is optional enrichment.
func NewHealthHandler(store, web HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		err := store.Health(ctx)

		response := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if web != nil {
			response.WebSearch = "connected"
			if werr := web.Health(ctx); werr != nil {
				response.WebSearch = "disconnected"
			}
		}
		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response.Status = "unhealthy"
			response.Storage = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.Storage = "connected"
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
