// Package apperrors defines the error kinds the ledger core reports to its callers.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller-facing layer.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is bad user input, such as a malformed name or price.
	KindValidation
	// KindEmptySelection means no candidate resolved against known people.
	KindEmptySelection
	// KindStorage is an I/O failure reading or writing persisted state.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEmptySelection:
		return "empty_selection"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a classified ledger error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a KindValidation error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Validationf wraps a parse failure as a KindValidation error.
func Validationf(err error, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

// EmptySelection returns a KindEmptySelection error.
func EmptySelection(message string) *Error {
	return &Error{Kind: KindEmptySelection, Message: message}
}

// Storage wraps an I/O failure. op names the store operation, e.g. "load prices".
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) && existing.Kind == KindStorage {
		return existing
	}
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
