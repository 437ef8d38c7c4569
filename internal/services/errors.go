package services

import (
	"context"
	"errors"
)

// Kind classifies a service failure so the transport layer can pick a status
// code without inspecting messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAlreadyFinished
	KindForbidden
	KindNotFound
	KindInvalidState
	KindNoContent
	KindUpstreamTimeout
	KindUpstreamFailure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAlreadyFinished:
		return "already_finished"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindNoContent:
		return "no_content"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstreamFailure:
		return "upstream_failure"
	default:
		return "internal"
	}
}

// Error is returned by every service operation that fails for a reason the
// caller can act on. Message is safe to show to users; Err is not.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// upstream classifies a collaborator failure as a timeout or a generic
// upstream failure.
func upstream(msg string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapError(KindUpstreamTimeout, msg+" timed out", err)
	}
	return wrapError(KindUpstreamFailure, msg+" failed", err)
}
