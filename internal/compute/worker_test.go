package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"deckserver/internal/domain/deckjson"
	"deckserver/internal/generation"
	"deckserver/internal/providers/textgen"
	"deckserver/internal/storage"
)

// callbackSink records callbacks the worker posts back.
type callbackSink struct {
	mu  sync.Mutex
	got []generation.Callback
	srv *httptest.Server
}

func newCallbackSink() *callbackSink {
	sink := &callbackSink{}
	sink.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cb generation.Callback
		if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sink.mu.Lock()
		sink.got = append(sink.got, cb)
		sink.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	return sink
}

func (s *callbackSink) callbacks() []generation.Callback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]generation.Callback(nil), s.got...)
}

func newTestWorker(t *testing.T) (*Worker, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	notifier := NewNotifier(zerolog.Nop())
	notifier.baseDelay = time.Millisecond
	gen := textgen.NewClient(textgen.Options{}) // synthetic mode
	return NewWorker(store, gen, notifier, zerolog.Nop()), store
}

func testPayload(t *testing.T, store *storage.FileStore, callbackURL string) generation.DelegationPayload {
	t.Helper()
	key, err := store.Write(context.Background(), "uploads/p1/plan.txt", []byte("We sell coffee to offices."))
	if err != nil {
		t.Fatalf("seed input: %v", err)
	}
	return generation.DelegationPayload{
		JobID:       uuid.New(),
		ProjectID:   uuid.New(),
		OwnerID:     uuid.New(),
		InputKeys:   []string{key},
		CallbackURL: callbackURL,
		Model:       "test-model",
		UserPrompt:  "short deck",
		Attempt:     0,
		Project:     generation.ProjectContext{Name: "Kopi Kantor", Industry: "food & beverage"},
	}
}

func TestWorkerProcessSuccess(t *testing.T) {
	sink := newCallbackSink()
	defer sink.srv.Close()
	worker, store := newTestWorker(t)
	payload := testPayload(t, store, sink.srv.URL)

	if err := worker.Process(context.Background(), payload); err != nil {
		t.Fatalf("Process: %v", err)
	}

	cbs := sink.callbacks()
	if len(cbs) != 1 {
		t.Fatalf("callbacks = %d, want 1", len(cbs))
	}
	cb := cbs[0]
	if cb.Status != generation.OutcomeCompleted {
		t.Fatalf("status = %s, want COMPLETED", cb.Status)
	}
	if cb.JobID != payload.JobID || cb.Attempt != payload.Attempt {
		t.Fatalf("callback identity mismatch: %+v", cb)
	}

	raw, err := store.Read(context.Background(), cb.ResultRef)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if _, err := deckjson.Parse(raw); err != nil {
		t.Fatalf("stored result violates deck contract: %v", err)
	}
}

func TestWorkerIsIdempotentOnRedelivery(t *testing.T) {
	sink := newCallbackSink()
	defer sink.srv.Close()
	worker, store := newTestWorker(t)
	payload := testPayload(t, store, sink.srv.URL)

	if err := worker.Process(context.Background(), payload); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	first := sink.callbacks()[0]

	if err := worker.Process(context.Background(), payload); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	cbs := sink.callbacks()
	if len(cbs) != 2 {
		t.Fatalf("callbacks = %d, want 2", len(cbs))
	}
	if cbs[1].ResultRef != first.ResultRef {
		t.Fatalf("redelivery produced a different result ref: %q vs %q", cbs[1].ResultRef, first.ResultRef)
	}
}

func TestWorkerMissingInputReportsFailure(t *testing.T) {
	sink := newCallbackSink()
	defer sink.srv.Close()
	worker, store := newTestWorker(t)
	payload := testPayload(t, store, sink.srv.URL)
	payload.InputKeys = []string{"uploads/p1/missing.txt"}

	if err := worker.Process(context.Background(), payload); err != nil {
		t.Fatalf("Process: %v", err)
	}
	cbs := sink.callbacks()
	if len(cbs) != 1 {
		t.Fatalf("callbacks = %d, want 1", len(cbs))
	}
	if cbs[0].Status != generation.OutcomeFailed {
		t.Fatalf("status = %s, want FAILED", cbs[0].Status)
	}
	if cbs[0].ErrorDetail == "" {
		t.Fatal("error detail missing")
	}
}

func TestServerAcceptsAndProcesses(t *testing.T) {
	sink := newCallbackSink()
	defer sink.srv.Close()
	worker, store := newTestWorker(t)
	payload := testPayload(t, store, sink.srv.URL)

	srv := httptest.NewServer(NewServer(worker, zerolog.Nop()).Router())
	defer srv.Close()

	body, _ := json.Marshal(payload)
	resp, err := http.Post(srv.URL+"/v1/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	// Processing is detached; wait for the callback to land.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(sink.callbacks()) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no callback arrived")
}

func TestServerRejectsInvalidPayload(t *testing.T) {
	worker, _ := newTestWorker(t)
	srv := httptest.NewServer(NewServer(worker, zerolog.Nop()).Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/generate", "application/json", strings.NewReader(`{"job_id":"not-a-uuid"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
