package wizard

import (
	"errors"
	"fmt"

	"github.com/sells-group/profile-wizard/pkg/generation"
)

// ValidationError reports malformed seed input. It is raised locally,
// before any server contact.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("wizard: invalid %s: %s", e.Field, e.Reason)
}

// TransitionError reports an event that is not legal in the current
// state, e.g. submitting while a job is already polling.
type TransitionError struct {
	State State
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("wizard: cannot %s in state %s", e.Event, e.State)
}

// PersistenceError wraps a failed confirm call. The edit buffer is
// preserved, so the confirm can simply be retried.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("wizard: save failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrSuperseded is returned when a polling run resolves after the wizard
// has been reset or resubmitted; its result was discarded.
var ErrSuperseded = errors.New("wizard: poll result superseded by reset")

// FailureKind buckets wizard errors for user messaging. Connectivity
// problems and generation problems get different copy: the backend may
// be fine while the network is not, and vice versa.
type FailureKind string

const (
	FailureValidation   FailureKind = "validation"
	FailureConnectivity FailureKind = "connectivity"
	FailureGeneration   FailureKind = "generation"
	FailureTimeout      FailureKind = "timeout"
	FailurePersistence  FailureKind = "persistence"
	FailureUnknown      FailureKind = "unknown"
)

// ClassifyFailure maps an error from any wizard operation to its
// user-facing failure kind.
func ClassifyFailure(err error) FailureKind {
	if err == nil {
		return FailureUnknown
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return FailureValidation
	}
	var persistErr *PersistenceError
	if errors.As(err, &persistErr) {
		return FailurePersistence
	}
	var timeoutErr *generation.TimeoutError
	if errors.As(err, &timeoutErr) {
		return FailureTimeout
	}
	var jobErr *generation.JobFailedError
	if errors.As(err, &jobErr) {
		return FailureGeneration
	}
	var apiErr *generation.APIError
	if errors.As(err, &apiErr) {
		return FailureConnectivity
	}
	// Anything else from a client call is a transport-level problem
	// (connection refused, DNS, context cancellation mid-request).
	return FailureConnectivity
}

// UserMessage returns the retry-affordance copy for a failure kind.
func UserMessage(kind FailureKind) string {
	switch kind {
	case FailureValidation:
		return "That input doesn't look right. Check it and try again."
	case FailureConnectivity:
		return "We couldn't reach the server. Check your connection and retry."
	case FailureGeneration:
		return "Generation failed. Start over to try again."
	case FailureTimeout:
		return "This is taking longer than expected. It may still finish; try again in a bit."
	case FailurePersistence:
		return "Saving failed. Your edits are intact; retry the save."
	default:
		return "Something went wrong. Please retry."
	}
}
