package lifecycle_test

import (
	"testing"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	p, err := lifecycle.DecodePayload(domain.EventEncounterStart, map[string]any{
		"encounter_id": "enc-1",
		"description":  "Wolves",
	})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.EncounterStart{EncounterID: "enc-1", Description: "Wolves"}, p)

	p, err = lifecycle.DecodePayload(domain.EventCombatStart, map[string]any{
		"participants": []map[string]any{
			{"id": "w1", "name": "Wolf", "current_hp": 11},
		},
	})
	require.NoError(t, err)
	cs, ok := p.(lifecycle.CombatStart)
	require.True(t, ok)
	require.Len(t, cs.Participants, 1)
	assert.Equal(t, combat.DefaultArmorClass, cs.Participants[0].ArmorClass)

	p, err = lifecycle.DecodePayload(domain.EventPause, map[string]any{"note": "snack break"})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = lifecycle.DecodePayload(domain.EventEnd, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDecodePayload_Invalid(t *testing.T) {
	_, err := lifecycle.DecodePayload(domain.EventCombatStart, map[string]any{
		"participants": []map[string]any{{"armor_class": "leather"}},
	})
	assert.ErrorIs(t, err, combat.ErrInvalidParticipant)
}

func TestPayloadEvents(t *testing.T) {
	assert.Equal(t, domain.EventEncounterStart, lifecycle.EncounterStart{}.Event())
	assert.Equal(t, domain.EventCombatStart, lifecycle.CombatStart{}.Event())
	assert.Equal(t, domain.EventCombatEnd, lifecycle.CombatEnd{}.Event())
	assert.Equal(t, domain.EventEnd, lifecycle.EndSession{}.Event())
}
