// Package errs provides structured error types and helpers for the object pool stack.
package errs

import (
	"strconv"
	"strings"
)

// Code identifies a pool-specific error category.
type Code string

const (
	// CodeInvalid indicates invalid input provided by the caller, e.g. a bad PoolConfig.
	CodeInvalid Code = "invalid_request"
	// CodeUnavailable indicates an auxiliary worker (the idle scheduler) is closed or saturated.
	CodeUnavailable Code = "unavailable"
	// CodePoolClosed indicates an operation observed a closed pool.
	CodePoolClosed Code = "pool_closed"
	// CodeCreateFailed indicates Manager.Create exhausted its retry budget.
	CodeCreateFailed Code = "create_failed"
	// CodePollTimeout indicates a borrower waited pollTimeout without acquiring an object.
	CodePollTimeout Code = "poll_timeout"
	// CodeInterrupted indicates a blocking wait was cancelled via context.
	CodeInterrupted Code = "interrupted"
	// CodeNotInPool indicates Return was called with an object unknown to the pool.
	CodeNotInPool Code = "not_in_pool"
	// CodeDoubleReturn indicates Return was called on an object that is not currently borrowed.
	CodeDoubleReturn Code = "double_return"
)

// E captures structured error information produced across the pool stack.
type E struct {
	Pool        string
	Code        Code
	Message     string
	Remediation string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the named pool and error code.
func New(pool string, code Code, opts ...Option) *E {
	e := &E{
		Pool:        strings.TrimSpace(pool),
		Code:        code,
		Message:     "",
		Remediation: "",
		cause:       nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithRemediation attaches remediation guidance to the error.
func WithRemediation(remediation string) Option {
	trimmed := strings.TrimSpace(remediation)
	return func(e *E) {
		e.Remediation = trimmed
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	pool := strings.TrimSpace(e.Pool)
	if pool == "" {
		pool = "unnamed"
	}
	parts = append(parts, "pool="+pool)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.Remediation != "" {
		parts = append(parts, "remediation="+strconv.Quote(e.Remediation))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// Is reports whether target shares this error's Code, so callers can write
// errors.Is(err, errs.New("", errs.CodePoolClosed)) without comparing pointers.
func (e *E) Is(target error) bool {
	if e == nil {
		return false
	}
	other, ok := target.(*E)
	if !ok || other == nil {
		return false
	}
	return e.Code == other.Code
}
