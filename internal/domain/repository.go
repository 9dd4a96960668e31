package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobRepository defines persistence for generation jobs.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*GenerationJob, error)
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*GenerationJob, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]GenerationJob, error)
	// MarkProcessing transitions QUEUED -> PROCESSING and records startedAt.
	// Returns false without error when the job is no longer QUEUED.
	MarkProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error)
	// MarkFailed terminates a non-terminal job with the given detail.
	// Returns false without error when the job is already terminal.
	MarkFailed(ctx context.Context, id uuid.UUID, detail string, completedAt time.Time) (bool, error)
	// StuckProcessing lists PROCESSING jobs whose startedAt is older than
	// the cutoff, for the supervisory sweep.
	StuckProcessing(ctx context.Context, cutoff time.Time) ([]GenerationJob, error)
	CountByStatus(ctx context.Context) (map[JobStatus]int, error)
}

// DeckRepository handles reads of generated pitch decks.
type DeckRepository interface {
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*PitchDeck, error)
	CurrentByProject(ctx context.Context, projectID uuid.UUID) (*PitchDeck, error)
	ListVersions(ctx context.Context, projectID uuid.UUID) ([]PitchDeckSummary, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]PitchDeck, error)
}

// ProjectRepository is the ownership-check boundary to the project service.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*Project, error)
}

// UploadRepository resolves input document references.
type UploadRepository interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]FileUpload, error)
}

// Tx is the per-job critical section. LockJob acquires the row lock; every
// write inside the same Tx commits atomically with it.
type Tx interface {
	LockJob(ctx context.Context, id uuid.UUID) (*GenerationJob, error)
	UpdateJob(ctx context.Context, job *GenerationJob) error
	UnsetCurrentDeck(ctx context.Context, projectID uuid.UUID) error
	NextDeckVersion(ctx context.Context, projectID uuid.UUID) (int, error)
	InsertDeck(ctx context.Context, deck *PitchDeck) error
}

// Store bundles the repositories with transactional access. Implementations
// must guarantee that two InTx calls locking the same job serialize.
type Store interface {
	Jobs() JobRepository
	Decks() DeckRepository
	Projects() ProjectRepository
	Uploads() UploadRepository
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
