package lifecycle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	created = time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	later   = time.Date(2025, 1, 1, 21, 30, 0, 0, time.UTC)
)

// expected is the transition table written out independently of the implementation.
var expected = map[domain.SessionStatus]map[domain.SessionEvent]domain.SessionStatus{
	domain.StatusCreated: {
		domain.EventStart: domain.StatusStaging,
		domain.EventEnd:   domain.StatusCompleted,
	},
	domain.StatusStaging: {
		domain.EventEnd: domain.StatusCompleted,
	},
	domain.StatusExploring: {
		domain.EventPause:          domain.StatusPaused,
		domain.EventEncounterStart: domain.StatusEncounter,
		domain.EventEnd:            domain.StatusCompleted,
	},
	domain.StatusEncounter: {
		domain.EventPause:       domain.StatusPaused,
		domain.EventCombatStart: domain.StatusCombat,
		domain.EventEnd:         domain.StatusCompleted,
	},
	domain.StatusCombat: {
		domain.EventPause:     domain.StatusPaused,
		domain.EventCombatEnd: domain.StatusExploring,
		domain.EventEnd:       domain.StatusCompleted,
	},
	domain.StatusDowntime: {
		domain.EventEnd: domain.StatusCompleted,
	},
	domain.StatusPaused: {
		domain.EventStart:  domain.StatusExploring,
		domain.EventResume: domain.StatusExploring,
		domain.EventEnd:    domain.StatusCompleted,
	},
	domain.StatusCompleted: {},
	domain.StatusFailed:    {},
}

func newMachine() *lifecycle.Machine {
	return lifecycle.New(lifecycle.WithClock(func() time.Time { return later }))
}

func stateIn(status domain.SessionStatus) *domain.SessionState {
	s := domain.NewSessionState("s-1", "c-1", created)
	s.Status = status
	return s
}

func TestTransition_Exhaustive(t *testing.T) {
	m := newMachine()

	for _, status := range domain.Statuses {
		for _, event := range domain.Events {
			t.Run(string(status)+"/"+string(event), func(t *testing.T) {
				state := stateIn(status)
				before := state.Clone()

				res, err := m.Transition(state, event, nil)

				want, ok := expected[status][event]
				if !ok {
					require.Error(t, err)
					assert.ErrorIs(t, err, domain.ErrInvalidTransition)

					var ite *lifecycle.InvalidTransitionError
					require.True(t, errors.As(err, &ite))
					assert.Equal(t, status, ite.From)
					assert.Equal(t, event, ite.Event)
					assert.Equal(t, before, state, "state must not change")
					return
				}

				require.NoError(t, err)
				assert.Equal(t, "success", res.Status)
				assert.Equal(t, status, res.Previous)
				assert.Equal(t, want, res.NewStatus)
				assert.Equal(t, want, state.Status)
				assert.Equal(t, later, state.UpdatedAt)
				assert.NotEmpty(t, res.Message)
			})
		}
	}
}

func TestAvailableEvents(t *testing.T) {
	for _, status := range domain.Statuses {
		var want []domain.SessionEvent
		for _, event := range domain.Events {
			if _, ok := expected[status][event]; ok {
				want = append(want, event)
			}
		}

		got := lifecycle.AvailableEvents(status)
		assert.ElementsMatch(t, want, got, "status %s", status)
		if status.IsTerminal() {
			assert.Empty(t, got)
		}
	}
}

func TestTransition_StartSetsStartedAt(t *testing.T) {
	state := stateIn(domain.StatusCreated)

	res, err := newMachine().Transition(state, domain.EventStart, nil)
	require.NoError(t, err)
	require.NotNil(t, state.StartedAt)
	assert.Equal(t, later, *state.StartedAt)
	assert.Nil(t, state.EndedAt)
	assert.Nil(t, res.Effect)
}

func TestTransition_EndSetsEndedAtOnce(t *testing.T) {
	state := stateIn(domain.StatusExploring)
	m := newMachine()

	res, err := m.Transition(state, domain.EventEnd, lifecycle.EndSession{Reason: "the party retires"})
	require.NoError(t, err)
	require.NotNil(t, state.EndedAt)
	assert.Equal(t, later, *state.EndedAt)
	require.NotNil(t, res.Effect)
	assert.Equal(t, lifecycle.EffectSessionWrapUp, res.Effect.Kind)
	assert.Equal(t, "the party retires", res.Effect.Description)

	_, err = m.Transition(state, domain.EventEnd, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, later, *state.EndedAt)
}

func TestTransition_EncounterEffect(t *testing.T) {
	state := stateIn(domain.StatusExploring)

	res, err := newMachine().Transition(state, domain.EventEncounterStart, lifecycle.EncounterStart{
		EncounterID: "enc-7",
		Description: "Ambush at the ford",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Effect)
	assert.Equal(t, lifecycle.EffectEncounterInit, res.Effect.Kind)
	assert.Equal(t, "s-1", res.Effect.SessionID)
	assert.Equal(t, "enc-7", res.Effect.EncounterID)
	assert.Equal(t, "Ambush at the ford", res.Effect.Description)
}

func TestTransition_CombatEffect(t *testing.T) {
	state := stateIn(domain.StatusEncounter)
	participants := []combat.Participant{{ID: "a", CurrentHP: 5}, {ID: "b", CurrentHP: 8}}

	res, err := newMachine().Transition(state, domain.EventCombatStart, lifecycle.CombatStart{Participants: participants})
	require.NoError(t, err)
	require.NotNil(t, res.Effect)
	assert.Equal(t, lifecycle.EffectCombatInit, res.Effect.Kind)
	assert.Equal(t, participants, res.Effect.Participants)
	assert.Equal(t, "Combat encounter", res.Effect.Description)
}

func TestTransition_PayloadMismatch(t *testing.T) {
	state := stateIn(domain.StatusExploring)
	before := state.Clone()

	_, err := newMachine().Transition(state, domain.EventEncounterStart, lifecycle.CombatEnd{Winner: "players"})
	assert.ErrorIs(t, err, lifecycle.ErrPayloadMismatch)
	assert.Equal(t, before, state)
}

func TestTransition_NilState(t *testing.T) {
	_, err := newMachine().Transition(nil, domain.EventStart, nil)
	assert.ErrorIs(t, err, lifecycle.ErrNilState)
}

func TestTransition_UnknownEvent(t *testing.T) {
	state := stateIn(domain.StatusExploring)
	_, err := newMachine().Transition(state, "teleport", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusExploring, state.Status)
}

func TestTransition_FullSession(t *testing.T) {
	m := newMachine()
	state := domain.NewSessionState("s-2", "c-1", created)

	steps := []struct {
		event domain.SessionEvent
		want  domain.SessionStatus
	}{
		{domain.EventStart, domain.StatusStaging},
		{domain.EventEnd, domain.StatusCompleted},
	}
	for _, step := range steps {
		res, err := m.Transition(state, step.event, nil)
		require.NoError(t, err)
		assert.Equal(t, step.want, res.NewStatus)
	}

	resumed := stateIn(domain.StatusPaused)
	path := []domain.SessionEvent{
		domain.EventResume,
		domain.EventEncounterStart,
		domain.EventCombatStart,
		domain.EventPause,
		domain.EventStart,
		domain.EventEncounterStart,
		domain.EventCombatStart,
		domain.EventCombatEnd,
		domain.EventEnd,
	}
	for _, event := range path {
		_, err := m.Transition(resumed, event, nil)
		require.NoError(t, err, "event %s from %s", event, resumed.Status)
	}
	assert.Equal(t, domain.StatusCompleted, resumed.Status)
}

func TestCanTransitionAndTarget(t *testing.T) {
	assert.True(t, lifecycle.CanTransition(domain.StatusCombat, domain.EventCombatEnd))
	assert.False(t, lifecycle.CanTransition(domain.StatusStaging, domain.EventPause))

	to, ok := lifecycle.Target(domain.StatusPaused, domain.EventStart)
	assert.True(t, ok)
	assert.Equal(t, domain.StatusExploring, to)
}
