package handlers

import (
	"net/http"

	"deckserver/internal/domain"
)

// JobStats reports job counts by status for ops visibility. Statuses with no
// jobs are reported as zero so dashboards get a stable shape.
func (a *App) JobStats(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Store.Jobs().CountByStatus(r.Context())
	if err != nil {
		a.domainError(w, err)
		return
	}
	out := make(map[string]int, 5)
	for _, status := range []domain.JobStatus{
		domain.JobStatusQueued,
		domain.JobStatusProcessing,
		domain.JobStatusCompleted,
		domain.JobStatusFailed,
		domain.JobStatusCancelled,
	} {
		out[string(status)] = counts[status]
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": out})
}
