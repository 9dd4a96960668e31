package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid job state")
)

// ValidationError rejects a start request before any job row is created.
// IDs carries the offending input file ids, if any.
type ValidationError struct {
	Reason string
	IDs    []uuid.UUID
}

func (e *ValidationError) Error() string {
	if len(e.IDs) == 0 {
		return e.Reason
	}
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(ids, ", "))
}

// TransportError marks a delegation invocation that was never accepted by
// the compute unit. Jobs failing this way are not retried.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("delegation transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
