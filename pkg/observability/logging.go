package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/fault"
)

// LogHooks returns engine hooks that write structured log lines. Faults are
// logged at error level, domain errors at info and successes at debug.
func LogHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnOperation: func(ctx context.Context, e *domain.OperationEvent) {
			attrs := []any{
				"operation", e.Operation,
				"duration", e.Duration,
				"outcome", e.Outcome,
			}
			switch e.Outcome {
			case string(fault.KindFault):
				logger.ErrorContext(ctx, "engine fault", append(attrs, "error", e.Err)...)
			case string(fault.KindDomain):
				logger.InfoContext(ctx, "operation rejected", append(attrs, "error", e.Err)...)
			default:
				logger.DebugContext(ctx, "operation completed", attrs...)
			}
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			if e.Err != nil {
				logger.InfoContext(ctx, "transition rejected",
					"session_id", e.SessionID,
					"event", e.Event,
					"from", e.From,
					"error", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "session transition",
				"session_id", e.SessionID,
				"event", e.Event,
				"from", e.From,
				"to", e.To,
			)
		},
	}
}
