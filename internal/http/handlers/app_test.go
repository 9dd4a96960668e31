package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"deckserver/internal/adapter/memstore"
	"deckserver/internal/domain"
	"deckserver/internal/generation"
	"deckserver/internal/middleware"
	"deckserver/internal/storage"
)

const testDefaultModel = "claude-sonnet-4-20250514"

// acceptingGateway acks every dispatch so started jobs land in PROCESSING.
type acceptingGateway struct {
	mu    sync.Mutex
	calls int
}

func (g *acceptingGateway) Invoke(context.Context, generation.DelegationPayload) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return nil
}

type testApp struct {
	app     *App
	store   *memstore.MemStore
	files   *storage.FileStore
	router  chi.Router
	ownerID uuid.UUID
	project uuid.UUID
	fileID  uuid.UUID
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := memstore.New()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	logger := zerolog.Nop()

	ctrl := generation.NewController(store, &acceptingGateway{}, logger, "http://api.local/v1/generate/callback", 2)
	rec := generation.NewReconciler(store, files, ctrl, logger)
	app := NewApp(store, ctrl, rec, files, logger, testDefaultModel)

	ta := &testApp{
		app:     app,
		store:   store,
		files:   files,
		ownerID: uuid.New(),
		project: uuid.New(),
		fileID:  uuid.New(),
	}
	store.SeedProject(domain.Project{
		ID:        ta.project,
		OwnerID:   ta.ownerID,
		Name:      "Warung Kopi Nusantara",
		Industry:  "food & beverage",
		CreatedAt: time.Now(),
	})
	store.SeedUpload(domain.FileUpload{
		ID:         ta.fileID,
		ProjectID:  ta.project,
		OwnerID:    ta.ownerID,
		Filename:   "business-plan.pdf",
		StorageKey: "uploads/business-plan.pdf",
		Status:     domain.UploadStatusCompleted,
		CreatedAt:  time.Now(),
	})

	r := chi.NewRouter()
	r.Post("/v1/generate/start", app.GenerationStart)
	r.Get("/v1/generate/jobs/{job_id}", app.GenerationStatus)
	r.Post("/v1/generate/jobs/{job_id}/cancel", app.GenerationCancel)
	r.Get("/v1/generate/projects/{project_id}/jobs", app.GenerationJobsByProject)
	r.Post("/v1/generate/callback", app.GenerationCallback)
	r.Get("/v1/projects/{project_id}/decks/current", app.DecksCurrent)
	r.Get("/v1/projects/{project_id}/decks", app.DecksList)
	r.Get("/v1/projects/{project_id}/decks/export", app.DecksExport)
	r.Get("/v1/decks/{deck_id}", app.DeckGet)
	r.Get("/v1/stats/jobs", app.JobStats)
	ta.router = r
	return ta
}

// do runs a request through the router as the given user. A nil userID sends
// the request without an authenticated subject.
func (ta *testApp) do(t *testing.T, method, target string, body *strings.Reader, userID *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	if userID != nil {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), userID.String()))
	}
	rr := httptest.NewRecorder()
	ta.router.ServeHTTP(rr, req)
	return rr
}
