package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"deckserver/internal/domain"
	"deckserver/internal/generation"
	"deckserver/internal/middleware"
	"deckserver/internal/storage"
)

// App bundles the dependencies of the HTTP handlers. DefaultModel fills in
// start requests that omit the model; the controller itself always receives
// an explicit one.
type App struct {
	Store        domain.Store
	Controller   *generation.Controller
	Reconciler   *generation.Reconciler
	Files        *storage.FileStore
	Logger       zerolog.Logger
	DefaultModel string
}

func NewApp(store domain.Store, controller *generation.Controller, reconciler *generation.Reconciler, files *storage.FileStore, logger zerolog.Logger, defaultModel string) *App {
	return &App{
		Store:        store,
		Controller:   controller,
		Reconciler:   reconciler,
		Files:        files,
		DefaultModel: defaultModel,
		Logger:       logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{"error": map[string]string{"code": code, "message": message}})
}

// currentUserID pulls the authenticated subject out of the request context.
// The JWT middleware put it there; a blank or malformed subject means the
// route was wired without auth by mistake.
func (a *App) currentUserID(r *http.Request) (uuid.UUID, bool) {
	sub := middleware.UserIDFromContext(r.Context())
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// domainError maps domain sentinels onto HTTP answers so every handler
// reports the same way.
func (a *App) domainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusForbidden, "forbidden", "resource belongs to another user")
	case errors.Is(err, domain.ErrInvalidState):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &verr):
		a.error(w, http.StatusBadRequest, "bad_request", verr.Error())
	default:
		a.Logger.Error().Err(err).Msg("handler failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func parseIDParam(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}
