// Package classifier defines the failure taxonomy shared by all classifier
// implementations. The queue inspects the Kind of a failed call to decide
// between backoff, cooldown, and abandoning the item.
package classifier

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindNonRetryable covers malformed responses and client-side errors;
	// the item is dropped without further attempts.
	KindNonRetryable Kind = iota
	// KindRateLimited is an explicit quota signal; processing pauses for a
	// fixed cooldown before the next attempt.
	KindRateLimited
	// KindServerError is an upstream 5xx; retried with exponential backoff.
	KindServerError
	// KindUnknown covers transport failures and unclassified errors;
	// retried like a server error.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindUnknown:
		return "unknown"
	default:
		return "non_retryable"
	}
}

// Error wraps a classification failure with its taxonomy kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("classify %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("classify %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a taxonomy error for op wrapping err.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the taxonomy kind from err. Errors that do not carry a
// kind are treated as non-retryable.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindNonRetryable
}

// Retryable reports whether another attempt may succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindServerError, KindUnknown:
		return true
	}
	return false
}
