package squish

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNoProvider is returned when a clone is requested without a
	// summarization provider and the run is not a dry run.
	ErrNoProvider = errors.New("no summarization provider configured")

	// ErrSessionNotFound is returned when no discovered session matches
	// the requested identifier.
	ErrSessionNotFound = errors.New("session not found")
)

// Error represents a failed operation with additional context.
type Error struct {
	Op        string         // Operation that failed
	SessionID string         // Session ID if applicable
	Err       error          // Underlying error
	Context   map[string]any // Additional context
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s (session=%s): %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func newError(op, sessionID string, err error) *Error {
	return &Error{Op: op, SessionID: sessionID, Err: err}
}
