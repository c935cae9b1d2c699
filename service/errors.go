package service

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure
type Kind int

const (
	KindUnexpected Kind = iota
	KindAlreadyExists
	KindNotFound
	KindValidationFailed
	KindUnsupportedMediaType
	KindPayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindNotFound:
		return "NotFound"
	case KindValidationFailed:
		return "ValidationFailed"
	case KindUnsupportedMediaType:
		return "UnsupportedMediaType"
	case KindPayloadTooLarge:
		return "PayloadTooLarge"
	default:
		return "Unexpected"
	}
}

// Error is a domain failure raised where it is detected and surfaced
// unchanged to the request boundary.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrAlreadyExists        = &Error{Kind: KindAlreadyExists}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrValidationFailed     = &Error{Kind: KindValidationFailed}
	ErrUnsupportedMediaType = &Error{Kind: KindUnsupportedMediaType}
	ErrPayloadTooLarge      = &Error{Kind: KindPayloadTooLarge}
)

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func AlreadyExists(format string, args ...any) error {
	return newError(KindAlreadyExists, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func ValidationFailed(format string, args ...any) error {
	return newError(KindValidationFailed, format, args...)
}

func UnsupportedMediaType(format string, args ...any) error {
	return newError(KindUnsupportedMediaType, format, args...)
}

func PayloadTooLarge(format string, args ...any) error {
	return newError(KindPayloadTooLarge, format, args...)
}

// KindOf returns the kind of the first domain error in err's tree, or
// KindUnexpected when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
