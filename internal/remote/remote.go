// Package remote talks to the optional remote copy of the hydration record:
// an HTTP endpoint that serves and replaces one JSON document.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/fakeyudi/hydro/internal/hydration"
)

// DocumentPath is joined to the configured base address.
const DocumentPath = "/state"

// ErrEmpty means the remote answered but holds no usable document.
var ErrEmpty = errors.New("remote has no state")

// Client fetches and replaces the remote document.
// Implementations must honour ctx cancellation.
type Client interface {
	// Fetch returns the remote document, ErrEmpty if there is none, or any
	// other error if the remote could not be reached or answered badly.
	Fetch(ctx context.Context) (*hydration.State, error)

	// Push replaces the remote document with st.
	Push(ctx context.Context, st hydration.State) error
}

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Method string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote %s: unexpected status %d", e.Method, e.Code)
}

// Outcome classifies a fetch for reconciliation.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeEmpty
	OutcomeUnreachable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "remote_ok"
	case OutcomeEmpty:
		return "remote_empty"
	}
	return "remote_unreachable"
}

// Classify maps a Fetch result to an Outcome.
func Classify(st *hydration.State, err error) Outcome {
	switch {
	case err == nil && st != nil:
		return OutcomeOK
	case err == nil, errors.Is(err, ErrEmpty):
		return OutcomeEmpty
	}
	return OutcomeUnreachable
}
