package protocol

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the client surfaces.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnectionFailure
	KindRequestMalformed
	KindResponseMalformed
	KindResponseError
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConnectionFailure:
		return "connection failure"
	case KindRequestMalformed:
		return "request malformed"
	case KindResponseMalformed:
		return "response malformed"
	case KindResponseError:
		return "response error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrConnectionFailure = &Error{Kind: KindConnectionFailure}
	ErrRequestMalformed  = &Error{Kind: KindRequestMalformed}
	ErrResponseMalformed = &Error{Kind: KindResponseMalformed}
	ErrResponseError     = &Error{Kind: KindResponseError}
	ErrTimeout           = &Error{Kind: KindTimeout}
)

// Error is one failed request. Message carries the daemon text for
// KindResponseError and a short client-side reason otherwise.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("protocol: %s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("protocol: %s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("protocol: %s: %v", e.Kind, e.Err)
	default:
		return "protocol: " + e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func ConnectionFailure(msg string, cause error) error {
	return &Error{Kind: KindConnectionFailure, Message: msg, Err: cause}
}

func RequestMalformed(msg string, cause error) error {
	return &Error{Kind: KindRequestMalformed, Message: msg, Err: cause}
}

func ResponseMalformed(msg string) error {
	return &Error{Kind: KindResponseMalformed, Message: msg}
}

// ResponseError keeps the daemon's message verbatim.
func ResponseError(msg string) error {
	return &Error{Kind: KindResponseError, Message: msg}
}

func Timeout(msg string, cause error) error {
	return &Error{Kind: KindTimeout, Message: msg, Err: cause}
}

// KindOf reports the kind of err, or KindUnknown when err is not a
// protocol error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
