/**
 * @description
 * HTTP handlers for the fund-release engine. These endpoints exist for
 * external schedulers and operators; partial per-record failures live in the
 * returned summary, and only a total failure to run (store unreachable)
 * produces a non-2xx response.
 */
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/rodrigobarona/eleva-care-app-sub018/internal/domain"
)

// BatchRunner is the engine surface exposed to HTTP triggers.
type BatchRunner interface {
	RunTransferBatch(ctx context.Context, now time.Time) (domain.BatchSummary, error)
	RunPayoutBatch(ctx context.Context, now time.Time) (domain.BatchSummary, error)
}

// Handler holds the batch runner that handlers will invoke.
type Handler struct {
	runner BatchRunner
}

// NewHandler creates a new Handler with the given batch runner.
func NewHandler(runner BatchRunner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) handleRunTransferBatch(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.RunTransferBatch(r.Context(), time.Now().UTC())
	if err != nil {
		log.Printf("Error running transfer batch: %v", err)
		respondWithJSON(w, http.StatusInternalServerError, batchErrorResponse{
			Error:   err.Error(),
			Summary: summary,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleRunPayoutBatch(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.RunPayoutBatch(r.Context(), time.Now().UTC())
	if err != nil {
		log.Printf("Error running payout batch: %v", err)
		respondWithJSON(w, http.StatusInternalServerError, batchErrorResponse{
			Error:   err.Error(),
			Summary: summary,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// batchErrorResponse reports an aborted batch along with the counts it
// committed before aborting.
type batchErrorResponse struct {
	Error   string              `json:"error"`
	Summary domain.BatchSummary `json:"summary"`
}

// respondWithJSON writes JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
