package gamemaster

import (
	"context"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/dice"
	"github.com/aretw0/gamemaster/pkg/tasks"
)

type rollArgs struct {
	Expression string         `mapstructure:"expression"`
	Advantage  dice.Advantage `mapstructure:"advantage"`
}

// RollResult echoes the request next to the outcome.
type RollResult struct {
	Expression string         `json:"expression"`
	Advantage  dice.Advantage `json:"advantage"`
	dice.Outcome
}

type checkArgs struct {
	Expression string         `mapstructure:"expression"`
	DC         int            `mapstructure:"dc"`
	Advantage  dice.Advantage `mapstructure:"advantage"`
	Modifiers  map[string]int `mapstructure:"modifiers"`
}

type damageArgs struct {
	Expression string `mapstructure:"expression"`
	DamageType string `mapstructure:"damage_type"`
	Critical   bool   `mapstructure:"critical"`
	Modifier   int    `mapstructure:"modifier"`
}

type dcArgs struct {
	BaseDC    int            `mapstructure:"base_dc"`
	Modifiers map[string]int `mapstructure:"modifiers"`
}

// DCResult wraps the calculated difficulty class.
type DCResult struct {
	DC int `json:"dc"`
}

type participantsArgs struct {
	Participants []map[string]any `mapstructure:"participants"`
}

type attackArgs struct {
	Attacker   map[string]any `mapstructure:"attacker"`
	Target     map[string]any `mapstructure:"target"`
	AttackData map[string]any `mapstructure:"attack_data"`
}

type saveArgs struct {
	Saver    map[string]any `mapstructure:"saver"`
	SaveData map[string]any `mapstructure:"save_data"`
}

type turnArgs struct {
	Actor      map[string]any   `mapstructure:"actor"`
	Action     string           `mapstructure:"action"`
	ActionData map[string]any   `mapstructure:"action_data"`
	Targets    []map[string]any `mapstructure:"targets"`
}

// RegisterTasks binds every engine operation to reg under its operation
// name. Arguments are loose maps; participants get the same defaults as
// combat.DecodeParticipant.
func (e *Engine) RegisterTasks(reg *tasks.Registry) {
	reg.Register(OpRoll, "Roll a dice expression such as 3d8kh2, with optional advantage",
		tasks.Typed(func(ctx context.Context, a rollArgs) (RollResult, error) {
			out, err := e.Roll(ctx, a.Expression, a.Advantage)
			if err != nil {
				return RollResult{}, err
			}
			return RollResult{Expression: a.Expression, Advantage: a.Advantage, Outcome: out}, nil
		}))

	reg.Register(OpResolveCheck, "Resolve a skill check or saving throw against a DC",
		tasks.Typed(func(ctx context.Context, a checkArgs) (dice.CheckResult, error) {
			return e.ResolveCheck(ctx, a.Expression, a.DC, a.Advantage, a.Modifiers)
		}))

	reg.Register(OpResolveDamage, "Roll damage dice, doubled on a critical hit",
		tasks.Typed(func(ctx context.Context, a damageArgs) (dice.DamageResult, error) {
			return e.ResolveDamage(ctx, a.Expression, a.DamageType, a.Critical, a.Modifier)
		}))

	reg.Register(OpCalculateDC, "Add named modifiers to a base difficulty class",
		tasks.Typed(func(ctx context.Context, a dcArgs) (DCResult, error) {
			return DCResult{DC: e.CalculateDC(ctx, a.BaseDC, a.Modifiers)}, nil
		}))

	reg.Register(OpRollInitiative, "Roll initiative and return the turn order",
		tasks.Typed(func(ctx context.Context, a participantsArgs) ([]combat.InitiativeEntry, error) {
			ps, err := combat.DecodeParticipants(a.Participants)
			if err != nil {
				return nil, err
			}
			return e.RollInitiative(ctx, ps)
		}))

	reg.Register(OpResolveAttack, "Resolve one attack against a target's armor class",
		tasks.Typed(func(ctx context.Context, a attackArgs) (combat.AttackResult, error) {
			attacker, err := combat.DecodeParticipant(a.Attacker)
			if err != nil {
				return combat.AttackResult{}, err
			}
			target, err := combat.DecodeParticipant(a.Target)
			if err != nil {
				return combat.AttackResult{}, err
			}
			action, err := combat.DecodeAction(string(combat.ActionAttack), a.AttackData)
			if err != nil {
				return combat.AttackResult{}, err
			}
			return e.ResolveAttack(ctx, attacker, target, *action.Attack)
		}))

	reg.Register(OpResolveSave, "Resolve a saving throw against a DC",
		tasks.Typed(func(ctx context.Context, a saveArgs) (combat.SaveResult, error) {
			saver, err := combat.DecodeParticipant(a.Saver)
			if err != nil {
				return combat.SaveResult{}, err
			}
			action, err := combat.DecodeAction(string(combat.ActionSave), a.SaveData)
			if err != nil {
				return combat.SaveResult{}, err
			}
			return e.ResolveSave(ctx, saver, *action.Save)
		}))

	reg.Register(OpProcessTurn, "Process a combat turn: attack, save, cast, move or any other action",
		tasks.Typed(func(ctx context.Context, a turnArgs) (combat.TurnRecord, error) {
			actor, err := combat.DecodeParticipant(a.Actor)
			if err != nil {
				return combat.TurnRecord{}, err
			}
			targets, err := combat.DecodeParticipants(a.Targets)
			if err != nil {
				return combat.TurnRecord{}, err
			}
			action, err := combat.DecodeAction(a.Action, a.ActionData)
			if err != nil {
				return combat.TurnRecord{}, err
			}
			return e.ProcessTurn(ctx, actor, action, targets)
		}))

	reg.Register(OpCheckCombatEnd, "Check whether combat should end and who won",
		tasks.Typed(func(ctx context.Context, a participantsArgs) (combat.EndCheck, error) {
			ps, err := combat.DecodeParticipants(a.Participants)
			if err != nil {
				return combat.EndCheck{}, err
			}
			return e.CheckCombatEnd(ctx, ps)
		}))
}
