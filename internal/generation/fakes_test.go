package generation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"deckserver/internal/adapter/memstore"
	"deckserver/internal/domain"
)

// fakeGateway acks every invocation unless err is set, and records the
// payloads so tests can assert on attempt tokens and input keys.
type fakeGateway struct {
	mu    sync.Mutex
	calls []DelegationPayload
	err   error
}

func (g *fakeGateway) Invoke(_ context.Context, payload DelegationPayload) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.calls = append(g.calls, payload)
	return nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) lastCall() DelegationPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

// fakeFetcher resolves result references from an in-memory map.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string][]byte
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{results: make(map[string][]byte)}
}

func (f *fakeFetcher) put(ref string, raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[ref] = raw
}

func (f *fakeFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.results[ref]
	if !ok {
		return nil, errors.New("result not found: " + ref)
	}
	return raw, nil
}

func getJob(t *testing.T, store *memstore.MemStore, id uuid.UUID) domain.GenerationJob {
	t.Helper()
	job, err := store.Jobs().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load job %s: %v", id, err)
	}
	return *job
}

func projectDecks(t *testing.T, store *memstore.MemStore, projectID uuid.UUID) []domain.PitchDeck {
	t.Helper()
	decks, err := store.Decks().ListByProject(context.Background(), projectID)
	if err != nil {
		t.Fatalf("list decks: %v", err)
	}
	return decks
}

func currentDecks(t *testing.T, store *memstore.MemStore, projectID uuid.UUID) []domain.PitchDeck {
	t.Helper()
	var out []domain.PitchDeck
	for _, d := range projectDecks(t, store, projectID) {
		if d.IsCurrentVersion {
			out = append(out, d)
		}
	}
	return out
}
