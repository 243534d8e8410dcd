package combat_test

import (
	"testing"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDamage(t *testing.T) {
	p := combat.Participant{CurrentHP: 10, MaxHP: 12}

	assert.Equal(t, 4, combat.ApplyDamage(p, 6).CurrentHP)
	assert.Equal(t, 0, combat.ApplyDamage(p, 50).CurrentHP)
	assert.Equal(t, 12, combat.ApplyDamage(p, -5).CurrentHP)
	assert.Equal(t, 10, p.CurrentHP, "the input is not modified")
}

func TestEncounter_Next(t *testing.T) {
	enc := combat.NewEncounter([]combat.InitiativeEntry{
		{Participant: combat.Participant{ID: "a", CurrentHP: 5}, TurnOrder: 1},
		{Participant: combat.Participant{ID: "b", CurrentHP: 0}, TurnOrder: 2},
		{Participant: combat.Participant{ID: "c", CurrentHP: 3}, TurnOrder: 3},
	})

	_, ok := enc.Current()
	assert.False(t, ok)

	var order []string
	var rounds []int
	for range 4 {
		entry, ok := enc.Next()
		require.True(t, ok)
		order = append(order, entry.Participant.ID)
		rounds = append(rounds, enc.Round)
	}
	assert.Equal(t, []string{"a", "c", "a", "c"}, order)
	assert.Equal(t, []int{1, 1, 2, 2}, rounds)

	current, ok := enc.Current()
	require.True(t, ok)
	assert.Equal(t, "c", current.Participant.ID)
}

func TestEncounter_PeekDoesNotAdvance(t *testing.T) {
	enc := combat.NewEncounter([]combat.InitiativeEntry{
		{Participant: combat.Participant{ID: "a", CurrentHP: 5}, TurnOrder: 1},
		{Participant: combat.Participant{ID: "b", CurrentHP: 5}, TurnOrder: 2},
	})

	entry, round, turn, ok := enc.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", entry.Participant.ID)
	assert.Equal(t, 1, round)
	assert.Equal(t, 1, turn)
	assert.Zero(t, enc.Turn)

	enc.Next()
	enc.Next()
	entry, round, turn, ok = enc.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", entry.Participant.ID)
	assert.Equal(t, 2, round)
	assert.Equal(t, 1, turn)
	assert.Equal(t, 1, enc.Round)
}

func TestEncounter_NextWithNobodyStanding(t *testing.T) {
	enc := combat.NewEncounter([]combat.InitiativeEntry{
		{Participant: combat.Participant{ID: "a"}},
	})
	_, ok := enc.Next()
	assert.False(t, ok)
	assert.Zero(t, enc.Round)
	assert.Zero(t, enc.Turn)
}

func TestEncounter_ApplyAndCheck(t *testing.T) {
	enc := combat.NewEncounter([]combat.InitiativeEntry{
		{Participant: fighter},
		{Participant: goblin},
	})
	_, ok := enc.Next()
	require.True(t, ok)

	rec := combat.TurnRecord{
		Results: []combat.Result{
			{Kind: combat.ResultAttack, Attack: &combat.AttackResult{TargetID: "g", Hit: true, Damage: 9}},
			{Kind: combat.ResultAttack, Attack: &combat.AttackResult{TargetID: "f", Hit: false, Damage: 0}},
		},
	}
	enc.Stamp(&rec)
	assert.Equal(t, 1, rec.Round)
	assert.Equal(t, 1, rec.Turn)

	enc.Apply(rec)
	g, ok := enc.Participant("g")
	require.True(t, ok)
	assert.Zero(t, g.CurrentHP)

	end := enc.Check()
	assert.True(t, end.CombatShouldEnd)
	require.NotNil(t, end.Winner)
	assert.Equal(t, "players", *end.Winner)
}
