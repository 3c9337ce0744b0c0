package schemas

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure into the unified taxonomy. Each kind
// carries a distinct propagation policy.
type ErrorKind string

const (
	// ErrProviderUnavailable covers network, auth, and quota failures of the
	// live provider. Recovered locally via the fallback table and never
	// surfaced to end users as an error.
	ErrProviderUnavailable ErrorKind = "provider_unavailable"

	// ErrMalformedResponse means the provider replied, but the payload did not
	// conform to the structure the caller demanded (e.g. unparseable JSON from
	// a structured agent). Surfaced to the caller as a typed error.
	ErrMalformedResponse ErrorKind = "malformed_response"

	// ErrPreconditionFailed means the request was rejected before any network
	// call was attempted (empty prompt, missing credentials). Surfaced
	// immediately.
	ErrPreconditionFailed ErrorKind = "precondition_failed"
)

// GenerationError is the single error contract for the response pipeline.
type GenerationError struct {
	Kind  ErrorKind
	Agent AgentID // The agent the failing request targeted, when known.
	Err   error   // The underlying cause, when one exists.
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s, agent=%s): %v", e.Kind, e.Agent, e.Err)
	}
	return fmt.Sprintf("generation failed (%s, agent=%s)", e.Kind, e.Agent)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError builds a GenerationError of the given kind.
func NewGenerationError(kind ErrorKind, agent AgentID, err error) *GenerationError {
	return &GenerationError{Kind: kind, Agent: agent, Err: err}
}

// IsErrorKind reports whether err is, or wraps, a *GenerationError of the
// given kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == kind
}
