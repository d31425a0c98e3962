// Package generation talks to external text-generation services. It defines the
// Service boundary, classified service errors, provider adapters, middleware,
// and the per-call retry state machine used by section generation.
package generation

import (
	"context"
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

// Request is one completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Service produces a completion for a request.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ServiceFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrorKind classifies a failed completion.
type ErrorKind string

const (
	KindRateLimited    ErrorKind = "rate_limited"
	KindTimeout        ErrorKind = "timeout"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindUnavailable    ErrorKind = "unavailable"
)

// Error is a classified generation failure.
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

// NewError wraps err with a kind.
func NewError(kind ErrorKind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation %s (%s)", e.Kind, e.Provider)
	}
	return fmt.Sprintf("generation %s (%s): %v", e.Kind, e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether a retry may succeed.
func (e *Error) Transient() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTimeout
}

// Classified converts the error into the shared classified form.
func (e *Error) Classified() *errors.ClassifiedError {
	b := errors.WrapError(e, errors.CategoryGeneration, "generation call failed").
		WithContext("kind", string(e.Kind)).
		WithContext("provider", e.Provider)
	switch e.Kind {
	case KindRateLimited:
		b = b.RateLimit()
	case KindTimeout:
		b = b.Retryable()
	default:
		b = b.Warning()
	}
	return b.Build()
}

// Classify maps any error returned by a Service onto an *Error. Deadline
// expiry becomes a timeout; unknown errors are treated as unavailability.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var genErr *Error
	if stderrors.As(err, &genErr) {
		return genErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, "", err)
	}
	return NewError(KindUnavailable, "", err)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Transient()
}

// kindForStatus maps an HTTP status code from a provider onto an error kind.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindRateLimited
	case status == 408 || status == 504:
		return KindTimeout
	case status >= 400 && status < 500:
		return KindInvalidRequest
	default:
		return KindUnavailable
	}
}
