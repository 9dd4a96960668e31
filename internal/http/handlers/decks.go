package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"deckserver/internal/domain"
	"deckserver/pkg/zip"
)

type deckResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProjectID        uuid.UUID       `json:"project_id"`
	GenerationJobID  *uuid.UUID      `json:"generation_job_id,omitempty"`
	Title            string          `json:"title"`
	Version          int             `json:"version"`
	SlideCount       int             `json:"slide_count"`
	IsCurrentVersion bool            `json:"is_current_version"`
	Content          json.RawMessage `json:"content"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toDeckResponse(d *domain.PitchDeck) deckResponse {
	return deckResponse{
		ID:               d.ID,
		ProjectID:        d.ProjectID,
		GenerationJobID:  d.GenerationJobID,
		Title:            d.Title,
		Version:          d.Version,
		SlideCount:       d.SlideCount,
		IsCurrentVersion: d.IsCurrentVersion,
		Content:          json.RawMessage(d.Content),
		CreatedAt:        d.CreatedAt,
	}
}

// DecksCurrent returns the project's single current deck version.
func (a *App) DecksCurrent(w http.ResponseWriter, r *http.Request) {
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
	if _, err := a.Store.Projects().GetForOwner(r.Context(), projectID, userID); err != nil {
		a.domainError(w, err)
		return
	}
	deck, err := a.Store.Decks().CurrentByProject(r.Context(), projectID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toDeckResponse(deck))
}

// DecksList returns version summaries for a project, newest version first.
func (a *App) DecksList(w http.ResponseWriter, r *http.Request) {
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
	if _, err := a.Store.Projects().GetForOwner(r.Context(), projectID, userID); err != nil {
		a.domainError(w, err)
		return
	}
	versions, err := a.Store.Decks().ListVersions(r.Context(), projectID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": versions})
}

// DeckGet returns a single deck by id, scoped to its owner.
func (a *App) DeckGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.currentUserID(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	deckID, err := parseIDParam(chi.URLParam(r, "deck_id"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "deck_id must be a uuid")
		return
	}
	deck, err := a.Store.Decks().GetForOwner(r.Context(), deckID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toDeckResponse(deck))
}

// DecksExport streams a zip with every deck version of a project.
func (a *App) DecksExport(w http.ResponseWriter, r *http.Request) {
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
	if _, err := a.Store.Projects().GetForOwner(r.Context(), projectID, userID); err != nil {
		a.domainError(w, err)
		return
	}
	decks, err := a.Store.Decks().ListByProject(r.Context(), projectID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	if len(decks) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "project has no decks")
		return
	}

	assets := make([]zip.Asset, 0, len(decks))
	for _, d := range decks {
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("deck-v%02d-%s.json", d.Version, d.ID),
			MIME:     "application/json",
			Data:     d.Content,
		})
	}
	archive := zip.ArchiveAssets(assets)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=project-%s-decks.zip", projectID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
