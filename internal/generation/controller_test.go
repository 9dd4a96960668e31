package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"deckserver/internal/adapter/memstore"
	"deckserver/internal/domain"
)

type testEnv struct {
	store   *memstore.MemStore
	gateway *fakeGateway
	fetcher *fakeFetcher
	ctrl    *Controller
	rec     *Reconciler

	ownerID   uuid.UUID
	projectID uuid.UUID
	fileID    uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	gateway := &fakeGateway{}
	fetcher := newFakeFetcher()
	logger := zerolog.Nop()

	ctrl := NewController(store, gateway, logger, "http://api.local/v1/generate/callback", 2)
	rec := NewReconciler(store, fetcher, ctrl, logger)

	env := &testEnv{
		store:     store,
		gateway:   gateway,
		fetcher:   fetcher,
		ctrl:      ctrl,
		rec:       rec,
		ownerID:   uuid.New(),
		projectID: uuid.New(),
		fileID:    uuid.New(),
	}
	store.SeedProject(domain.Project{
		ID:        env.projectID,
		OwnerID:   env.ownerID,
		Name:      "Warung Kopi Nusantara",
		Industry:  "food & beverage",
		CreatedAt: time.Now(),
	})
	store.SeedUpload(domain.FileUpload{
		ID:         env.fileID,
		ProjectID:  env.projectID,
		OwnerID:    env.ownerID,
		Filename:   "business-plan.pdf",
		StorageKey: "uploads/" + env.projectID.String() + "/business-plan.pdf",
		Status:     domain.UploadStatusCompleted,
		CreatedAt:  time.Now(),
	})
	return env
}

func (e *testEnv) startParams() StartParams {
	return StartParams{
		OwnerID:      e.ownerID,
		ProjectID:    e.projectID,
		InputFileIDs: []uuid.UUID{e.fileID},
		Model:        "claude-sonnet-4-20250514",
		UserPrompt:   "10 slides, investor audience",
		Locale:       "en",
	}
}

func TestStartDispatchesAndMarksProcessing(t *testing.T) {
	env := newTestEnv(t)

	job, err := env.ctrl.Start(context.Background(), env.startParams())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if job.Status != domain.JobStatusProcessing {
		t.Fatalf("status = %s, want PROCESSING", job.Status)
	}
	if job.StartedAt == nil {
		t.Fatal("StartedAt not set")
	}
	if job.RetryCount != 0 || job.MaxRetries != 2 {
		t.Fatalf("retry bookkeeping = %d/%d, want 0/2", job.RetryCount, job.MaxRetries)
	}

	if n := env.gateway.callCount(); n != 1 {
		t.Fatalf("gateway invoked %d times, want 1", n)
	}
	payload := env.gateway.lastCall()
	if payload.JobID != job.ID {
		t.Errorf("payload job id = %s, want %s", payload.JobID, job.ID)
	}
	if payload.Attempt != 0 {
		t.Errorf("payload attempt = %d, want 0", payload.Attempt)
	}
	if payload.CallbackURL != "http://api.local/v1/generate/callback" {
		t.Errorf("callback url = %q", payload.CallbackURL)
	}
	if len(payload.InputKeys) != 1 || payload.InputKeys[0] == "" {
		t.Errorf("input keys = %v, want one storage key", payload.InputKeys)
	}
	if payload.Project.Name != "Warung Kopi Nusantara" {
		t.Errorf("project context name = %q", payload.Project.Name)
	}
}

func TestStartValidation(t *testing.T) {
	env := newTestEnv(t)
	foreignFile := uuid.New()
	env.store.SeedUpload(domain.FileUpload{
		ID:         foreignFile,
		ProjectID:  uuid.New(), // some other project
		OwnerID:    env.ownerID,
		Filename:   "other.pdf",
		StorageKey: "uploads/other.pdf",
		Status:     domain.UploadStatusCompleted,
	})
	pendingFile := uuid.New()
	env.store.SeedUpload(domain.FileUpload{
		ID:         pendingFile,
		ProjectID:  env.projectID,
		OwnerID:    env.ownerID,
		Filename:   "pending.pdf",
		StorageKey: "uploads/pending.pdf",
		Status:     domain.UploadStatusPending,
	})

	tests := []struct {
		name   string
		mutate func(p *StartParams)
	}{
		{"missing model", func(p *StartParams) { p.Model = "" }},
		{"no input files", func(p *StartParams) { p.InputFileIDs = nil }},
		{"unknown file", func(p *StartParams) { p.InputFileIDs = []uuid.UUID{uuid.New()} }},
		{"file from another project", func(p *StartParams) { p.InputFileIDs = []uuid.UUID{foreignFile} }},
		{"upload not complete", func(p *StartParams) { p.InputFileIDs = []uuid.UUID{pendingFile} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := env.startParams()
			tc.mutate(&params)

			_, err := env.ctrl.Start(context.Background(), params)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}

	// None of the rejected requests may have left a job behind.
	counts, err := env.store.Jobs().CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("jobs persisted for rejected requests: %v", counts)
	}
	if n := env.gateway.callCount(); n != 0 {
		t.Fatalf("gateway invoked %d times for rejected requests", n)
	}
}

func TestStartAuthorization(t *testing.T) {
	env := newTestEnv(t)

	params := env.startParams()
	params.ProjectID = uuid.New()
	if _, err := env.ctrl.Start(context.Background(), params); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown project: err = %v, want ErrNotFound", err)
	}

	params = env.startParams()
	params.OwnerID = uuid.New()
	if _, err := env.ctrl.Start(context.Background(), params); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("foreign project: err = %v, want ErrUnauthorized", err)
	}
}

func TestStartTransportFailureIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.err = &domain.TransportError{Err: errors.New("connection refused")}

	job, err := env.ctrl.Start(context.Background(), env.startParams())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %s, want FAILED", job.Status)
	}
	if job.ErrorMessage == "" {
		t.Error("ErrorMessage not recorded")
	}
	if job.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if job.RetryCount != 0 {
		t.Errorf("retry count = %d, transport failures must not consume attempts", job.RetryCount)
	}
}

func TestGetStatusScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	job, err := env.ctrl.Start(context.Background(), env.startParams())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	got, err := env.ctrl.GetStatus(context.Background(), job.ID, env.ownerID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if got.ID != job.ID {
		t.Fatalf("got job %s, want %s", got.ID, job.ID)
	}

	if _, err := env.ctrl.GetStatus(context.Background(), job.ID, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign owner: err = %v, want ErrNotFound", err)
	}
}

func TestListByProject(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		if _, err := env.ctrl.Start(context.Background(), env.startParams()); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}

	jobs, err := env.ctrl.ListByProject(context.Background(), env.projectID, env.ownerID)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("len(jobs) = %d, want 3", len(jobs))
	}

	if _, err := env.ctrl.ListByProject(context.Background(), env.projectID, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign owner: err = %v, want ErrNotFound", err)
	}
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, err := env.ctrl.Start(ctx, env.startParams())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := env.ctrl.Cancel(ctx, job.ID, env.ownerID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	got := getJob(t, env.store, job.ID)
	if got.Status != domain.JobStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	// A second cancel hits a terminal job.
	if err := env.ctrl.Cancel(ctx, job.ID, env.ownerID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("cancel of terminal job: err = %v, want ErrInvalidState", err)
	}
}

func TestCancelForeignOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, err := env.ctrl.Start(ctx, env.startParams())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := env.ctrl.Cancel(ctx, job.ID, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := getJob(t, env.store, job.ID); got.Status != domain.JobStatusProcessing {
		t.Fatalf("status = %s, foreign cancel must not change state", got.Status)
	}
}
