package retry

import (
	"errors"
	"time"
)

var (
	// ErrInvalidMaxAttempts is returned when MaxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("MaxAttempts must be greater than 0")
)

// fatalError marks an error that must not be retried (bad credentials,
// malformed configuration, client-side mistakes).
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps err so that Do returns it immediately without retrying.
// Returns nil if err is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err carries the fatal marker.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}

// afterError marks a transient error carrying a server-provided wait hint,
// typically from a 429 Retry-After header.
type afterError struct {
	err  error
	wait time.Duration
}

func (e *afterError) Error() string { return e.err.Error() }
func (e *afterError) Unwrap() error { return e.err }

// After wraps err with a minimum wait before the next attempt.
// Returns nil if err is nil.
func After(err error, wait time.Duration) error {
	if err == nil {
		return nil
	}
	return &afterError{err: err, wait: wait}
}

// RetryAfter extracts a wait hint from err, if present.
func RetryAfter(err error) (time.Duration, bool) {
	var ae *afterError
	if errors.As(err, &ae) {
		return ae.wait, true
	}
	return 0, false
}

// Unwrap strips the retry markers from err, returning the underlying error.
func Unwrap(err error) error {
	if err == nil {
		return nil
	}
	var fe *fatalError
	if errors.As(err, &fe) {
		return fe.err
	}
	var ae *afterError
	if errors.As(err, &ae) {
		return ae.err
	}
	return err
}
