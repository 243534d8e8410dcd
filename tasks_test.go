package gamemaster_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/gamemaster"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/dice"
	"github.com/aretw0/gamemaster/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 2, 1, 18, 0, 0, 0, time.UTC)

func newTaskRegistry(src dice.Source) *tasks.Registry {
	reg := tasks.NewRegistry()
	gamemaster.New(gamemaster.WithSource(src)).RegisterTasks(reg)
	return reg
}

func TestRegisterTasks_Names(t *testing.T) {
	reg := newTaskRegistry(dice.DefaultSource())
	assert.Equal(t, []string{
		"combat.check_combat_end",
		"combat.process_turn",
		"combat.resolve_attack",
		"combat.resolve_save",
		"combat.roll_initiative",
		"dice.roll",
		"rules.calculate_dc",
		"rules.resolve_check",
		"rules.resolve_damage",
	}, reg.Names())
}

func TestTask_Roll(t *testing.T) {
	reg := newTaskRegistry(dice.NewScriptedSource(5, 2, 7))

	out, err := reg.Execute(context.Background(), gamemaster.OpRoll, map[string]any{"expression": "3d8kh2"})
	require.NoError(t, err)
	res := out.(gamemaster.RollResult)
	assert.Equal(t, "3d8kh2", res.Expression)
	assert.Equal(t, 12, res.Total)
}

func TestTask_RollInvalidAdvantage(t *testing.T) {
	reg := newTaskRegistry(dice.NewScriptedSource(5))

	_, err := reg.Execute(context.Background(), gamemaster.OpRoll, map[string]any{"expression": "1d20", "advantage": "lucky"})
	assert.ErrorIs(t, err, dice.ErrInvalidAdvantage)
}

func TestTask_FractionalIntegersRejected(t *testing.T) {
	reg := newTaskRegistry(dice.NewScriptedSource(10, 10))
	ctx := context.Background()

	_, err := reg.Execute(ctx, gamemaster.OpResolveCheck, map[string]any{"expression": "1d20", "dc": 12.5})
	assert.ErrorIs(t, err, tasks.ErrInvalidArgs)

	_, err = reg.Execute(ctx, gamemaster.OpResolveAttack, map[string]any{
		"attacker": map[string]any{"name": "Rogue"},
		"target":   map[string]any{"name": "Orc", "armor_class": 13.5},
	})
	assert.ErrorIs(t, err, combat.ErrInvalidParticipant)

	out, err := reg.Execute(ctx, gamemaster.OpResolveCheck, map[string]any{"expression": "1d20", "dc": 12.0})
	require.NoError(t, err)
	assert.Equal(t, 12, out.(dice.CheckResult).DC)
}

func TestTask_ResolveAttackDefaults(t *testing.T) {
	// d20 15, then 1d6 default damage 4.
	reg := newTaskRegistry(dice.NewScriptedSource(15, 4))

	out, err := reg.Execute(context.Background(), gamemaster.OpResolveAttack, map[string]any{
		"attacker":    map[string]any{"name": "Hero"},
		"target":      map[string]any{"name": "Orc", "armor_class": "12"},
		"attack_data": map[string]any{"attack_modifier": 5, "damage_modifier": 2},
	})
	require.NoError(t, err)
	res := out.(combat.AttackResult)
	assert.Equal(t, "Hero", res.AttackerID, "id falls back to the name")
	assert.Equal(t, 12, res.TargetAC)
	assert.True(t, res.Hit)
	assert.Equal(t, 6, res.Damage)
}

func TestTask_ResolveSaveDefaultDC(t *testing.T) {
	reg := newTaskRegistry(dice.NewScriptedSource(9))

	out, err := reg.Execute(context.Background(), gamemaster.OpResolveSave, map[string]any{
		"saver":     map[string]any{"name": "Wizard"},
		"save_data": map[string]any{"save_modifier": 1, "save_type": "dexterity"},
	})
	require.NoError(t, err)
	res := out.(combat.SaveResult)
	assert.Equal(t, 10, res.DC)
	assert.True(t, res.Success)
	assert.Equal(t, "dexterity", res.SaveType)
}

func TestTask_ProcessTurnUnknownAction(t *testing.T) {
	reg := newTaskRegistry(dice.DefaultSource())

	out, err := reg.Execute(context.Background(), gamemaster.OpProcessTurn, map[string]any{
		"actor":  map[string]any{"name": "Bard"},
		"action": "dance",
	})
	require.NoError(t, err)
	rec := out.(combat.TurnRecord)
	require.Len(t, rec.Results, 1)
	assert.Equal(t, "Unknown action", rec.Results[0].Description)
}

func TestTask_CalculateDCAndCombatEnd(t *testing.T) {
	reg := newTaskRegistry(dice.DefaultSource())
	ctx := context.Background()

	out, err := reg.Execute(ctx, gamemaster.OpCalculateDC, map[string]any{"base_dc": 10, "modifiers": map[string]any{"cover": 5}})
	require.NoError(t, err)
	assert.Equal(t, gamemaster.DCResult{DC: 15}, out)

	out, err = reg.Execute(ctx, gamemaster.OpCheckCombatEnd, map[string]any{
		"participants": []any{
			map[string]any{"name": "A", "side": "party", "current_hp": 0},
			map[string]any{"name": "B", "side": "monsters", "current_hp": 0},
		},
	})
	require.NoError(t, err)
	end := out.(combat.EndCheck)
	assert.True(t, end.CombatShouldEnd)
	assert.Nil(t, end.Winner)
}
