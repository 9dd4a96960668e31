package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"deckserver/internal/domain"
	"deckserver/internal/generation"
	"deckserver/internal/middleware"
)

type startGenerationRequest struct {
	ProjectID    uuid.UUID   `json:"project_id"`
	InputFileIDs []uuid.UUID `json:"input_file_ids"`
	Model        string      `json:"model"`
	SystemPrompt string      `json:"system_prompt"`
	UserPrompt   string      `json:"user_prompt"`
	Locale       string      `json:"locale"`
}

type jobResponse struct {
	ID           uuid.UUID  `json:"id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	Status       string     `json:"status"`
	Model        string     `json:"model"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ResultDeckID *uuid.UUID `json:"result_deck_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func toJobResponse(job *domain.GenerationJob) jobResponse {
	return jobResponse{
		ID:           job.ID,
		ProjectID:    job.ProjectID,
		Status:       string(job.Status),
		Model:        job.Model,
		RetryCount:   job.RetryCount,
		MaxRetries:   job.MaxRetries,
		ErrorMessage: job.ErrorMessage,
		ResultDeckID: job.ResultDeckID,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
}

// GenerationStart accepts a generation request and answers 202 with the job
// in its post-dispatch state. The deck itself arrives later via callback.
func (a *App) GenerationStart(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.currentUserID(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req startGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ProjectID == uuid.Nil {
		a.error(w, http.StatusBadRequest, "bad_request", "project_id required")
		return
	}
	if req.Locale == "" {
		req.Locale = middleware.LocaleFromContext(r.Context())
	}
	if req.Model == "" {
		req.Model = a.DefaultModel
	}

	job, err := a.Controller.Start(r.Context(), generation.StartParams{
		OwnerID:      userID,
		ProjectID:    req.ProjectID,
		InputFileIDs: req.InputFileIDs,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
		UserPrompt:   req.UserPrompt,
		Locale:       req.Locale,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, toJobResponse(job))
}

// GenerationStatus returns one job, scoped to its owner.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.currentUserID(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID, err := parseIDParam(chi.URLParam(r, "job_id"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id must be a uuid")
		return
	}
	job, err := a.Controller.GetStatus(r.Context(), jobID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toJobResponse(job))
}

// GenerationJobsByProject lists a project's jobs, newest first.
func (a *App) GenerationJobsByProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.currentUserID(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	projectID, err := parseIDParam(chi.URLParam(r, "project_id"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "project_id must be a uuid")
		return
	}
	jobs, err := a.Controller.ListByProject(r.Context(), projectID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, toJobResponse(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// GenerationCancel terminates a non-terminal job.
func (a *App) GenerationCancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.currentUserID(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID, err := parseIDParam(chi.URLParam(r, "job_id"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id must be a uuid")
		return
	}
	if err := a.Controller.Cancel(r.Context(), jobID, userID); err != nil {
		a.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
