/**
 * @description
 * HTTP router setup for the fund-release engine using go-chi/chi. The surface
 * is internal-only: health, Prometheus metrics, and manual batch triggers for
 * external schedulers and operators.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new Chi router and registers fund-release routes.
func NewRouter(h *Handler, internalKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Batches run to completion within the request; give them room.
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Fund-release engine is healthy"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/internal/fund-release", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalKey))
		r.Post("/transfers/run", h.handleRunTransferBatch)
		r.Post("/payouts/run", h.handleRunPayoutBatch)
	})

	return r
}
