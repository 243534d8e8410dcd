package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")
	now := time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewSessionState(sessionID, "campaign-1", now)
		started := now.Add(time.Minute)
		state.Status = domain.StatusExploring
		state.StartedAt = &started

		err := store.Save(ctx, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.ID, loaded.ID)
		assert.Equal(t, state.CampaignID, loaded.CampaignID)
		assert.Equal(t, domain.StatusExploring, loaded.Status)
		require.NotNil(t, loaded.StartedAt)
		assert.True(t, started.Equal(*loaded.StartedAt))
		assert.Nil(t, loaded.EndedAt)
		assert.True(t, now.Equal(loaded.CreatedAt))
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Status = domain.StatusFailed

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusExploring, again.Status, "mutating a loaded state must not change the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, domain.NewSessionState(sessionID, "", now))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, domain.NewSessionState(id1, "", now))
		_ = store.Save(ctx, domain.NewSessionState(id2, "", now))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunCombatLogContract runs a suite of tests to verify that a CombatLog
// implementation adheres to the defined interface contract.
func RunCombatLogContract(t *testing.T, log CombatLog) {
	ctx := context.Background()
	sessionID := "contract-test-log-" + time.Now().Format("20060102150405")
	at := time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)

	record := func(i int) combat.TurnRecord {
		return combat.TurnRecord{
			ID:        fmt.Sprintf("turn-%d", i),
			ActorID:   "hero",
			Actor:     "Hero",
			Action:    combat.MoveAction(5*i, "east"),
			Round:     1,
			Turn:      i,
			Timestamp: at.Add(time.Duration(i) * time.Second),
			Results: []combat.Result{
				{Kind: combat.ResultMovement, Move: &combat.MoveData{Distance: 5 * i, Direction: "east"}},
			},
		}
	}

	t.Run("Empty", func(t *testing.T) {
		recs, err := log.List(ctx, "empty-"+sessionID)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("Append and List keeps order", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			require.NoError(t, log.Append(ctx, sessionID, record(i)))
		}

		recs, err := log.List(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		for i, rec := range recs {
			assert.Equal(t, fmt.Sprintf("turn-%d", i+1), rec.ID)
			assert.Equal(t, combat.ActionMove, rec.Action.Kind)
			require.Len(t, rec.Results, 1)
			require.NotNil(t, rec.Results[0].Move)
			assert.Equal(t, 5*(i+1), rec.Results[0].Move.Distance)
			assert.True(t, record(i+1).Timestamp.Equal(rec.Timestamp))
		}
	})

	t.Run("Logs are per session", func(t *testing.T) {
		other := sessionID + "-other"
		require.NoError(t, log.Append(ctx, other, record(9)))
		defer func() { _ = log.Clear(ctx, other) }()

		recs, err := log.List(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, log.Clear(ctx, sessionID))

		recs, err := log.List(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}
