package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound means the session was never created or has been evicted.
	// The caller has to start a new one.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned for messages to a completed or cancelled session.
	ErrSessionClosed = errors.New("session already closed")
)

// SessionCreationError is returned when the ledger could not open a consultation.
type SessionCreationError struct {
	PatientID string
	Err       error
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("could not create consultation for patient %s: %v", e.PatientID, e.Err)
}

func (e *SessionCreationError) Unwrap() error {
	return e.Err
}
