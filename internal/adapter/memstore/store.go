// Package memstore provides an in-memory domain.Store. It backs unit tests
// and local development without Postgres. InTx holds one mutex for the whole
// critical section, which gives the same per-job serialization guarantee the
// row lock provides in the pgx-backed store, and restores a snapshot when fn
// fails so aborted transactions leave no trace.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"deckserver/internal/domain"
)

// ErrWriteFailed is returned by transactional writes when FailWrites is set.
var ErrWriteFailed = errors.New("memstore: write failed")

type MemStore struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*domain.GenerationJob
	decks    map[uuid.UUID]*domain.PitchDeck
	projects map[uuid.UUID]*domain.Project
	uploads  map[uuid.UUID]*domain.FileUpload

	// FailWrites makes transactional writes fail. Test hook.
	FailWrites bool
}

func New() *MemStore {
	return &MemStore{
		jobs:     make(map[uuid.UUID]*domain.GenerationJob),
		decks:    make(map[uuid.UUID]*domain.PitchDeck),
		projects: make(map[uuid.UUID]*domain.Project),
		uploads:  make(map[uuid.UUID]*domain.FileUpload),
	}
}

// SeedProject inserts a project directly. Projects are owned by another
// service in production, so there is no repository write path for them.
func (s *MemStore) SeedProject(p domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.projects[p.ID] = &cp
}

// SeedUpload inserts a file upload directly.
func (s *MemStore) SeedUpload(f domain.FileUpload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := f
	s.uploads[f.ID] = &cp
}

// SeedDeck inserts a deck directly, bypassing version bookkeeping.
func (s *MemStore) SeedDeck(d domain.PitchDeck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := d
	s.decks[d.ID] = &cp
}

// MutateJob applies fn to a stored job outside any transaction. Test hook
// for constructing states like a long-running PROCESSING job.
func (s *MemStore) MutateJob(id uuid.UUID, fn func(j *domain.GenerationJob)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	fn(j)
	return true
}

func copyJob(j *domain.GenerationJob) domain.GenerationJob {
	cp := *j
	cp.InputFileIDs = append([]uuid.UUID(nil), j.InputFileIDs...)
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	if j.ResultDeckID != nil {
		id := *j.ResultDeckID
		cp.ResultDeckID = &id
	}
	return cp
}

func (s *MemStore) Jobs() domain.JobRepository         { return jobs{s} }
func (s *MemStore) Decks() domain.DeckRepository       { return decks{s} }
func (s *MemStore) Projects() domain.ProjectRepository { return projects{s} }
func (s *MemStore) Uploads() domain.UploadRepository   { return uploads{s} }

func (s *MemStore) InTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapJobs := make(map[uuid.UUID]*domain.GenerationJob, len(s.jobs))
	for id, j := range s.jobs {
		cp := copyJob(j)
		snapJobs[id] = &cp
	}
	snapDecks := make(map[uuid.UUID]*domain.PitchDeck, len(s.decks))
	for id, d := range s.decks {
		cp := *d
		snapDecks[id] = &cp
	}

	if err := fn(tx{s}); err != nil {
		s.jobs = snapJobs
		s.decks = snapDecks
		return err
	}
	return nil
}

type jobs struct{ s *MemStore }

func (m jobs) Create(_ context.Context, job *domain.GenerationJob) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := copyJob(job)
	m.s.jobs[job.ID] = &cp
	return nil
}

func (m jobs) GetByID(_ context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := copyJob(j)
	return &cp, nil
}

func (m jobs) GetForOwner(_ context.Context, id, ownerID uuid.UUID) (*domain.GenerationJob, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[id]
	if !ok || j.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := copyJob(j)
	return &cp, nil
}

func (m jobs) ListByProject(_ context.Context, projectID uuid.UUID) ([]domain.GenerationJob, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.GenerationJob
	for _, j := range m.s.jobs {
		if j.ProjectID == projectID {
			out = append(out, copyJob(j))
		}
	}
	return out, nil
}

func (m jobs) MarkProcessing(_ context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[id]
	if !ok || j.Status != domain.JobStatusQueued {
		return false, nil
	}
	j.Status = domain.JobStatusProcessing
	if j.StartedAt == nil {
		t := startedAt
		j.StartedAt = &t
	}
	return true, nil
}

func (m jobs) MarkFailed(_ context.Context, id uuid.UUID, detail string, completedAt time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[id]
	if !ok || j.Status.Terminal() {
		return false, nil
	}
	j.Status = domain.JobStatusFailed
	j.ErrorMessage = detail
	t := completedAt
	j.CompletedAt = &t
	return true, nil
}

func (m jobs) StuckProcessing(_ context.Context, cutoff time.Time) ([]domain.GenerationJob, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.GenerationJob
	for _, j := range m.s.jobs {
		if j.Status == domain.JobStatusProcessing && j.StartedAt != nil && j.StartedAt.Before(cutoff) {
			out = append(out, copyJob(j))
		}
	}
	return out, nil
}

func (m jobs) CountByStatus(_ context.Context) (map[domain.JobStatus]int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	counts := make(map[domain.JobStatus]int)
	for _, j := range m.s.jobs {
		counts[j.Status]++
	}
	return counts, nil
}

type decks struct{ s *MemStore }

func (m decks) GetForOwner(_ context.Context, id, ownerID uuid.UUID) (*domain.PitchDeck, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.decks[id]
	if !ok || d.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m decks) CurrentByProject(_ context.Context, projectID uuid.UUID) (*domain.PitchDeck, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, d := range m.s.decks {
		if d.ProjectID == projectID && d.IsCurrentVersion {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m decks) ListVersions(_ context.Context, projectID uuid.UUID) ([]domain.PitchDeckSummary, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.PitchDeckSummary
	for _, d := range m.s.decks {
		if d.ProjectID != projectID {
			continue
		}
		out = append(out, domain.PitchDeckSummary{
			ID:               d.ID,
			GenerationJobID:  d.GenerationJobID,
			Title:            d.Title,
			Version:          d.Version,
			SlideCount:       d.SlideCount,
			IsCurrentVersion: d.IsCurrentVersion,
			CreatedAt:        d.CreatedAt,
		})
	}
	return out, nil
}

func (m decks) ListByProject(_ context.Context, projectID uuid.UUID) ([]domain.PitchDeck, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.PitchDeck
	for _, d := range m.s.decks {
		if d.ProjectID == projectID {
			out = append(out, *d)
		}
	}
	return out, nil
}

type projects struct{ s *MemStore }

func (m projects) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m projects) GetForOwner(_ context.Context, id, ownerID uuid.UUID) (*domain.Project, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type uploads struct{ s *MemStore }

func (m uploads) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.FileUpload, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []domain.FileUpload
	for _, id := range ids {
		if f, ok := m.s.uploads[id]; ok {
			out = append(out, *f)
		}
	}
	return out, nil
}

// tx operates on the already-locked store; InTx holds the mutex.
type tx struct{ s *MemStore }

func (t tx) LockJob(_ context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	j, ok := t.s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := copyJob(j)
	return &cp, nil
}

func (t tx) UpdateJob(_ context.Context, job *domain.GenerationJob) error {
	if t.s.FailWrites {
		return ErrWriteFailed
	}
	cp := copyJob(job)
	t.s.jobs[job.ID] = &cp
	return nil
}

func (t tx) UnsetCurrentDeck(_ context.Context, projectID uuid.UUID) error {
	for _, d := range t.s.decks {
		if d.ProjectID == projectID {
			d.IsCurrentVersion = false
		}
	}
	return nil
}

func (t tx) NextDeckVersion(_ context.Context, projectID uuid.UUID) (int, error) {
	max := 0
	for _, d := range t.s.decks {
		if d.ProjectID == projectID && d.Version > max {
			max = d.Version
		}
	}
	return max + 1, nil
}

func (t tx) InsertDeck(_ context.Context, deck *domain.PitchDeck) error {
	if t.s.FailWrites {
		return ErrWriteFailed
	}
	cp := *deck
	t.s.decks[deck.ID] = &cp
	return nil
}

var _ domain.Store = (*MemStore)(nil)
