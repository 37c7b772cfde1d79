package workflow

import (
	"errors"
	"fmt"

	"github.com/nexio-dev/nexbot/internal/records"
)

// Kind classifies a workflow failure. The presentation layer maps kinds to
// reply visibility and decides what gets reported.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is malformed or oversized input.
	KindValidation
	// KindAuthorization is a missing role or relation.
	KindAuthorization
	// KindNotFound is a missing project, profile or group.
	KindNotFound
	// KindStore is a failed record store operation.
	KindStore
	// KindExternal is a failed chat platform action.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Error is the only error type workflows return. Message is safe to show
// to the caller; Err is the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (%v)", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a workflow error, or KindUnknown.
func KindOf(err error) Kind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return KindUnknown
}

func denied(msg string, err error) *Error {
	return &Error{Kind: KindAuthorization, Message: msg, Err: err}
}

func notFound(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

// storeFailure surfaces the cause to the caller, prefixed by what failed.
func storeFailure(what string, err error) *Error {
	return &Error{Kind: KindStore, Message: fmt.Sprintf("%s: %v", what, err), Err: err}
}

func externalFailure(what string, err error) *Error {
	return &Error{Kind: KindExternal, Message: fmt.Sprintf("%s: %v", what, err), Err: err}
}

// invalid converts records.Validate output. Anything that is not a
// *records.ValidationError is treated as a programming error in the input
// struct and surfaced as-is.
func invalid(err error) *Error {
	var verr *records.ValidationError
	if errors.As(err, &verr) {
		return &Error{Kind: KindValidation, Message: verr.Error(), Err: err}
	}
	return &Error{Kind: KindValidation, Message: "Invalid input.", Err: err}
}

// check validates v and returns a validation-kind error, or nil.
func check(v any) error {
	if err := records.Validate(v); err != nil {
		return invalid(err)
	}
	return nil
}
