package generation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProjectContext carries the project fields the compute unit feeds into its
// prompts.
type ProjectContext struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Industry       string `json:"industry,omitempty"`
	TargetAudience string `json:"target_audience,omitempty"`
}

// DelegationPayload is the self-contained body handed to the compute unit.
// It must carry everything a stateless worker needs, including the callback
// address and the attempt token it has to echo back.
type DelegationPayload struct {
	JobID        uuid.UUID      `json:"job_id"`
	ProjectID    uuid.UUID      `json:"project_id"`
	OwnerID      uuid.UUID      `json:"owner_id"`
	InputKeys    []string       `json:"input_keys"`
	CallbackURL  string         `json:"callback_url"`
	Model        string         `json:"model"`
	SystemPrompt string         `json:"system_prompt,omitempty"`
	UserPrompt   string         `json:"user_prompt,omitempty"`
	Locale       string         `json:"locale,omitempty"`
	Attempt      int            `json:"attempt"`
	Project      ProjectContext `json:"project"`
}

// Validate checks the fields a compute unit cannot work without.
func (p *DelegationPayload) Validate() error {
	if p.JobID == uuid.Nil {
		return fmt.Errorf("job_id is required")
	}
	if p.ProjectID == uuid.Nil {
		return fmt.Errorf("project_id is required")
	}
	if len(p.InputKeys) == 0 {
		return fmt.Errorf("input_keys must not be empty")
	}
	if strings.TrimSpace(p.CallbackURL) == "" {
		return fmt.Errorf("callback_url is required")
	}
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if p.Attempt < 0 {
		return fmt.Errorf("attempt must not be negative")
	}
	return nil
}

// Outcome is the tagged result variant reported by the compute unit.
type Outcome string

const (
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomeFailed    Outcome = "FAILED"
)

// Callback is the completion signal for one delegation attempt. Delivery is
// at-least-once; the reconciler must treat it idempotently.
type Callback struct {
	JobID       uuid.UUID `json:"job_id"`
	Status      Outcome   `json:"status"`
	Attempt     int       `json:"attempt"`
	ResultRef   string    `json:"result_ref,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Validate enforces the tagged-variant contract at the boundary, before the
// reconciler runs.
func (c *Callback) Validate() error {
	if c.JobID == uuid.Nil {
		return fmt.Errorf("job_id is required")
	}
	if c.Attempt < 0 {
		return fmt.Errorf("attempt must not be negative")
	}
	switch c.Status {
	case OutcomeCompleted:
		if strings.TrimSpace(c.ResultRef) == "" {
			return fmt.Errorf("result_ref is required for a COMPLETED callback")
		}
	case OutcomeFailed:
		if strings.TrimSpace(c.ErrorDetail) == "" {
			return fmt.Errorf("error_detail is required for a FAILED callback")
		}
	default:
		return fmt.Errorf("status must be COMPLETED or FAILED, got %q", c.Status)
	}
	return nil
}
