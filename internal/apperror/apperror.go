package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can pick the right user-facing message
// without inspecting backend error strings.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnavailable
	KindAccessDenied
	KindTimeout
	KindSlotTaken
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	case KindAccessDenied:
		return "access_denied"
	case KindTimeout:
		return "timeout"
	case KindSlotTaken:
		return "slot_taken"
	default:
		return "internal"
	}
}

// Error is a classified application error.
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

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(resource string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found", Err: err}
}

func Unavailable(message string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Err: err}
}

func AccessDenied(message string, err error) *Error {
	return &Error{Kind: KindAccessDenied, Message: message, Err: err}
}

func Timeout(message string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: message, Err: err}
}

func SlotTaken(slotID string) *Error {
	return &Error{Kind: KindSlotTaken, Message: "slot " + slotID + " is no longer available"}
}

// KindOf extracts the kind of err, defaulting to KindInternal for errors that
// were never classified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
