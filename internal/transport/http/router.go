// Package httptransport is the thin HTTP layer over the event orchestrator.
// It terminates SNS HTTPS deliveries and exposes health and metrics.
package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tfbridge/internal/platform/middleware"
)

// NewRouter wires all endpoints behind the shared middleware chain. The event
// route's timeout must outlast the dispatcher's post-submission liveness
// delay.
func NewRouter(h *Handler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	r.Post("/events", h.handleEvent)
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
