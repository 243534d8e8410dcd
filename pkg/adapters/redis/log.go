package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/gamemaster/pkg/combat"
	backend "github.com/redis/go-redis/v9"
)

// CombatLog implements ports.CombatLog as one Redis list per session.
type CombatLog struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewCombatLog creates a CombatLog from an existing client. It accepts the
// same options as the Store.
func NewCombatLog(client *backend.Client, opts ...Option) *CombatLog {
	o := buildOptions(opts)
	return &CombatLog{
		client: client,
		prefix: o.prefix + "combat:",
		ttl:    o.ttl,
	}
}

func (l *CombatLog) key(sessionID string) string {
	return l.prefix + sessionID
}

// Append pushes rec to the tail of the session's list.
func (l *CombatLog) Append(ctx context.Context, sessionID string, rec combat.TurnRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal turn record: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, l.key(sessionID), data)
	if l.ttl > 0 {
		pipe.Expire(ctx, l.key(sessionID), l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append turn record: %w", err)
	}
	return nil
}

// List returns the session's records in append order.
func (l *CombatLog) List(ctx context.Context, sessionID string) ([]combat.TurnRecord, error) {
	vals, err := l.client.LRange(ctx, l.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read combat log: %w", err)
	}

	recs := make([]combat.TurnRecord, 0, len(vals))
	for i, v := range vals {
		var rec combat.TurnRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("combat log %s entry %d: %w", sessionID, i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Clear deletes the session's list.
func (l *CombatLog) Clear(ctx context.Context, sessionID string) error {
	if err := l.client.Del(ctx, l.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear combat log: %w", err)
	}
	return nil
}
