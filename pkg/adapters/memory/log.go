package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/gamemaster/pkg/combat"
)

// CombatLog implements ports.CombatLog in memory.
// Safe for concurrent use.
type CombatLog struct {
	data map[string][]combat.TurnRecord
	mu   sync.RWMutex
}

// NewCombatLog creates an empty in-memory log.
func NewCombatLog() *CombatLog {
	return &CombatLog{
		data: make(map[string][]combat.TurnRecord),
	}
}

// Append adds rec to the session's log.
func (l *CombatLog) Append(ctx context.Context, sessionID string, rec combat.TurnRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[sessionID] = append(l.data[sessionID], rec)
	return nil
}

// List returns a copy of the session's records.
func (l *CombatLog) List(ctx context.Context, sessionID string) ([]combat.TurnRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	recs := slices.Clone(l.data[sessionID])
	if recs == nil {
		recs = []combat.TurnRecord{}
	}
	return recs, nil
}

// Clear drops the session's log.
func (l *CombatLog) Clear(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.data, sessionID)
	return nil
}
