package ports

import (
	"context"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
)

// SessionStore defines the interface for persisting session state.
// The caller owns commits: the lifecycle mutates a SessionState in memory and
// the store only sees it when Save is called.
type SessionStore interface {
	// Save persists the state under state.ID.
	Save(ctx context.Context, state *domain.SessionState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}

// CombatLog defines the append-only turn log of a session.
type CombatLog interface {
	// Append adds rec to the end of the session's log.
	Append(ctx context.Context, sessionID string, rec combat.TurnRecord) error

	// List returns the session's records in append order.
	// An unknown session has an empty log.
	List(ctx context.Context, sessionID string) ([]combat.TurnRecord, error)

	// Clear drops the session's log.
	Clear(ctx context.Context, sessionID string) error
}
