package handlers

import (
	"encoding/json"
	"net/http"

	"deckserver/internal/generation"
)

// GenerationCallback receives the compute unit's completion signal. A 2xx
// acks the callback; the sender retries anything else, so only a genuine
// internal failure may answer 5xx.
func (a *App) GenerationCallback(w http.ResponseWriter, r *http.Request) {
	var cb generation.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := cb.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := a.Reconciler.HandleCallback(r.Context(), cb); err != nil {
		a.Logger.Error().Err(err).Str("job_id", cb.JobID.String()).Msg("callback reconciliation failed")
		a.error(w, http.StatusInternalServerError, "internal", "callback could not be applied")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}
