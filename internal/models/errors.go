package models

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes failure sources so callers can react to them even when
// the surfaced message is flattened to text.
type ErrorKind int

const (
	// KindProvider is an embedding service failure: unreachable or malformed response.
	KindProvider ErrorKind = iota + 1
	// KindGeneration is a completion service failure or an empty completion.
	KindGeneration
	// KindStorage is a persistence read or write failure.
	KindStorage
	// KindIntegrity is a stored record that cannot be used (e.g. undecodable embedding).
	KindIntegrity
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindProvider:
		return "provider error"
	case KindGeneration:
		return "generation error"
	case KindStorage:
		return "storage error"
	case KindIntegrity:
		return "integrity error"
	default:
		return "error"
	}
}

// Input validation errors.
var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrEmptyNote     = errors.New("note cannot be empty")
)

// Error is a failure of a given kind during operation Op.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ProviderError wraps an embedding service failure.
func ProviderError(op string, err error) error {
	return &Error{Kind: KindProvider, Op: op, Err: err}
}

// GenerationError wraps a completion service failure.
func GenerationError(op string, err error) error {
	return &Error{Kind: KindGeneration, Op: op, Err: err}
}

// StorageError wraps a persistence failure.
func StorageError(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

// IntegrityError reports an unusable stored record.
func IntegrityError(op string, err error) error {
	return &Error{Kind: KindIntegrity, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
