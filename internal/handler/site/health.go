package site

import (
	"net/http"

	"github.com/dukerupert/armstrong/internal/handler"
)

// HealthHandler reports liveness for load balancers.
type HealthHandler struct {
	transport string
}

// NewHealthHandler creates a health handler reporting the active transport.
func NewHealthHandler(transport string) *HealthHandler {
	return &HealthHandler{transport: transport}
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"transport": h.transport,
	})
}
