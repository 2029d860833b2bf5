package quizvault

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers unknown rows as well as rows owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrTryAgain is returned once an answer transaction has used up its
	// retries. Nothing from the failed attempts was kept.
	ErrTryAgain = errors.New("your answer could not be saved; please try again")
)

// ValidationError is a request the caller must fix before resending.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps a persistence failure. Retryable failures (serialization
// conflicts, deadlocks, dropped connections) may succeed if the whole unit
// of work is run again.
type StoreError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ConfigError means a user's stored settings could not be used.
type ConfigError struct {
	UserID int64
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("settings for user %d: %v", e.UserID, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err carries a retryable StoreError.
func IsRetryable(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Retryable
}
