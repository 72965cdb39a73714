package errors

import (
	"errors"
	"fmt"
)

var (
	ErrDecisionNotFound     = errors.New("decision not found")
	ErrInvalidTransition    = errors.New("invalid decision transition")
	ErrVotingClosed         = errors.New("voting is closed")
	ErrAlreadyVoted         = errors.New("user has already voted")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidDecisionInput = errors.New("invalid decision input")
	ErrQuorumOutOfRange     = errors.New("quorum must be between 1 and 100")
	ErrQuorumNotReached     = errors.New("quorum not reached")
	ErrConflict             = errors.New("decision conflict")
	ErrRosterUnavailable    = errors.New("council roster unavailable")
)

// TransitionError reports a rejected state-machine move. It unwraps to
// ErrInvalidTransition so callers can branch with errors.Is while the
// message names both states.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid decision transition from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func NewTransitionError(from, to string) error {
	return &TransitionError{From: from, To: to}
}
