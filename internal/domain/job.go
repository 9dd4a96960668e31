package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// DefaultMaxRetries is the retry budget assigned to new jobs.
const DefaultMaxRetries = 3

// Terminal reports whether no further transition may leave the status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a legal edge of the job state
// machine. QUEUED is re-reachable from PROCESSING via the retry edge.
func CanTransition(from, to JobStatus) bool {
	if from.Terminal() {
		return false
	}
	switch from {
	case JobStatusQueued:
		return to == JobStatusProcessing || to == JobStatusFailed || to == JobStatusCancelled
	case JobStatusProcessing:
		return to == JobStatusCompleted || to == JobStatusFailed || to == JobStatusCancelled || to == JobStatusQueued
	}
	return false
}

// GenerationJob is one request to produce a pitch deck from a set of
// uploaded documents. Jobs are never deleted; terminal rows stay as the
// audit trail.
type GenerationJob struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	OwnerID      uuid.UUID
	Status       JobStatus
	Model        string
	InputFileIDs []uuid.UUID
	SystemPrompt string
	UserPrompt   string
	Locale       string
	RetryCount   int
	MaxRetries   int
	ErrorMessage string
	ResultDeckID *uuid.UUID
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}
