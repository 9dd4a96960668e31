package domain

import (
	"time"

	"github.com/google/uuid"
)

// PitchDeck is a versioned generated artifact belonging to a project.
// Content is immutable after insert; only IsCurrentVersion is ever flipped,
// and only inside the reconciler's transaction when a newer version lands.
type PitchDeck struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	OwnerID         uuid.UUID
	GenerationJobID *uuid.UUID
	Title           string
	Version         int
	Content         []byte
	SlideCount      int
	IsCurrentVersion bool
	CreatedAt       time.Time
}

// PitchDeckSummary is the listing projection for version history.
type PitchDeckSummary struct {
	ID               uuid.UUID
	GenerationJobID  *uuid.UUID
	Title            string
	Version          int
	SlideCount       int
	IsCurrentVersion bool
	CreatedAt        time.Time
}
