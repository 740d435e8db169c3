// Package intelligence holds the error taxonomy and input rules shared by the
// conversational context components.
package intelligence

import (
	"errors"
	"fmt"
	"regexp"
)

const MaxSessionIdLength = 128

var (
	// ErrVersionConflict is returned when a snapshot changed between read and write.
	ErrVersionConflict = errors.New("context snapshot was modified concurrently")

	// ErrLockTimeout is returned when the per-session lock could not be acquired in time.
	ErrLockTimeout = errors.New("timed out waiting for session lock")
)

var sessionIdPattern = regexp.MustCompile(`^[A-Za-z0-9_.:\-]+$`)

// ValidationError reports caller input that can never succeed as sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError wraps a failure of the context store backend.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("context store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsPersistenceError(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

// ValidateSessionId checks the opaque session key format.
func ValidateSessionId(sessionId string) error {
	if sessionId == "" {
		return NewValidationError("session_id", "must not be empty")
	}
	if len(sessionId) > MaxSessionIdLength {
		return NewValidationError("session_id", fmt.Sprintf("must be at most %d characters", MaxSessionIdLength))
	}
	if !sessionIdPattern.MatchString(sessionId) {
		return NewValidationError("session_id", "contains invalid characters")
	}
	return nil
}
