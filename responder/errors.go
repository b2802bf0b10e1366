package responder

import (
	"errors"
	"fmt"
	"time"
)

type Code string

const (
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeInvalidInput Code = "VALIDATION_ERROR"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInternal     Code = "INTERNAL"
)

// Error is the typed failure surfaced to the presentation layer. Model
// failures never appear here: they are retried and then replaced by the
// NPC's fallback reply.
type Error struct {
	Code       Code
	Reason     string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("responder: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("responder: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code Code, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// AsError extracts a typed responder error from an error chain.
func AsError(err error) (*Error, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr, true
	}
	return nil, false
}
