package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is owned and mutated elsewhere; this service only reads it for
// ownership checks and prompt context.
type Project struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Name           string
	Description    string
	Industry       string
	TargetAudience string
	CreatedAt      time.Time
}

// UploadStatus enumerates the states of an uploaded input document.
type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "PENDING"
	UploadStatusCompleted UploadStatus = "COMPLETED"
	UploadStatusFailed    UploadStatus = "FAILED"
)

// FileUpload is an input document reference. Upload mechanics live in
// another service; generation only requires the rows to exist, belong to
// the right project and be upload-complete.
type FileUpload struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	OwnerID    uuid.UUID
	Filename   string
	StorageKey string
	Status     UploadStatus
	CreatedAt  time.Time
}
