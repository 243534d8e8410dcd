package lifecycle

import (
	"errors"
	"fmt"

	"github.com/aretw0/gamemaster/pkg/domain"
)

// ErrPayloadMismatch is returned when a payload belongs to a different event
// than the one being applied.
var ErrPayloadMismatch = errors.New("payload does not match event")

// ErrNilState is returned when Transition is given no session state.
var ErrNilState = errors.New("nil session state")

// InvalidTransitionError reports a (status, event) pair with no table entry.
type InvalidTransitionError struct {
	From  domain.SessionStatus
	Event domain.SessionEvent
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: cannot apply %q in status %q", e.Event, e.From)
}

func (e *InvalidTransitionError) Unwrap() error {
	return domain.ErrInvalidTransition
}
