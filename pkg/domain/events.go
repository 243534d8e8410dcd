package domain

import (
	"context"
	"time"
)

// OperationEvent describes one completed engine operation.
type OperationEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	// Outcome is "ok", "domain_error" or "fault".
	Outcome string `json:"outcome"`
	Err     error  `json:"-"`
}

// TransitionEvent describes an attempted session lifecycle transition.
type TransitionEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	Event     SessionEvent  `json:"event"`
	From      SessionStatus `json:"from"`
	To        SessionStatus `json:"to,omitempty"`
	Err       error         `json:"-"`
}

// Hooks defines callbacks for engine observability.
// Nil callbacks are skipped.
type Hooks struct {
	OnOperation  func(context.Context, *OperationEvent)
	OnTransition func(context.Context, *TransitionEvent)
}

// Merge returns hooks that call h first and then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnOperation: func(ctx context.Context, e *OperationEvent) {
			if h.OnOperation != nil {
				h.OnOperation(ctx, e)
			}
			if other.OnOperation != nil {
				other.OnOperation(ctx, e)
			}
		},
		OnTransition: func(ctx context.Context, e *TransitionEvent) {
			if h.OnTransition != nil {
				h.OnTransition(ctx, e)
			}
			if other.OnTransition != nil {
				other.OnTransition(ctx, e)
			}
		},
	}
}
