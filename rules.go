package gamemaster

import (
	"context"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/dice"
)

// Operation names, shared with the task registry.
const (
	OpRoll           = "dice.roll"
	OpResolveCheck   = "rules.resolve_check"
	OpResolveDamage  = "rules.resolve_damage"
	OpCalculateDC    = "rules.calculate_dc"
	OpRollInitiative = "combat.roll_initiative"
	OpResolveAttack  = "combat.resolve_attack"
	OpResolveSave    = "combat.resolve_save"
	OpProcessTurn    = "combat.process_turn"
	OpCheckCombatEnd = "combat.check_combat_end"
)

// Roll parses expression and rolls it.
func (e *Engine) Roll(ctx context.Context, expression string, adv dice.Advantage) (out dice.Outcome, err error) {
	err = e.observe(ctx, OpRoll, func(context.Context) error {
		expr, err := dice.Parse(expression)
		if err != nil {
			return err
		}
		out, err = e.combat.Roller().Roll(expr, adv)
		return err
	})
	return out, err
}

// ResolveCheck rolls expression against dc.
func (e *Engine) ResolveCheck(ctx context.Context, expression string, dc int, adv dice.Advantage, modifiers map[string]int) (res dice.CheckResult, err error) {
	err = e.observe(ctx, OpResolveCheck, func(context.Context) error {
		expr, err := dice.Parse(expression)
		if err != nil {
			return err
		}
		res, err = e.combat.Roller().ResolveCheck(expr, dc, adv, modifiers)
		return err
	})
	return res, err
}

// ResolveDamage rolls damage dice.
func (e *Engine) ResolveDamage(ctx context.Context, expression, damageType string, critical bool, modifier int) (res dice.DamageResult, err error) {
	err = e.observe(ctx, OpResolveDamage, func(context.Context) error {
		expr, err := dice.Parse(expression)
		if err != nil {
			return err
		}
		res, err = e.combat.Roller().ResolveDamage(expr, damageType, critical, modifier)
		return err
	})
	return res, err
}

// CalculateDC adds modifiers to a base difficulty class.
func (e *Engine) CalculateDC(ctx context.Context, base int, modifiers map[string]int) int {
	var dc int
	_ = e.observe(ctx, OpCalculateDC, func(context.Context) error {
		dc = dice.CalculateDC(base, modifiers)
		return nil
	})
	return dc
}

// RollInitiative orders participants for combat.
func (e *Engine) RollInitiative(ctx context.Context, participants []combat.Participant) (out []combat.InitiativeEntry, err error) {
	err = e.observe(ctx, OpRollInitiative, func(context.Context) error {
		out, err = e.combat.RollInitiative(participants)
		return err
	})
	return out, err
}

// ResolveAttack rolls one attack.
func (e *Engine) ResolveAttack(ctx context.Context, attacker, target combat.Participant, data combat.AttackData) (res combat.AttackResult, err error) {
	err = e.observe(ctx, OpResolveAttack, func(context.Context) error {
		res, err = e.combat.ResolveAttack(attacker, target, data)
		return err
	})
	return res, err
}

// ResolveSave rolls one saving throw.
func (e *Engine) ResolveSave(ctx context.Context, saver combat.Participant, data combat.SaveData) (res combat.SaveResult, err error) {
	err = e.observe(ctx, OpResolveSave, func(context.Context) error {
		res, err = e.combat.ResolveSave(saver, data)
		return err
	})
	return res, err
}

// ProcessTurn resolves one combat turn.
func (e *Engine) ProcessTurn(ctx context.Context, actor combat.Participant, action combat.Action, targets []combat.Participant) (rec combat.TurnRecord, err error) {
	err = e.observe(ctx, OpProcessTurn, func(context.Context) error {
		rec, err = e.combat.ProcessTurn(actor, action, targets)
		return err
	})
	return rec, err
}

// CheckCombatEnd reports whether at most one side can still fight.
func (e *Engine) CheckCombatEnd(ctx context.Context, participants []combat.Participant) (out combat.EndCheck, err error) {
	err = e.observe(ctx, OpCheckCombatEnd, func(context.Context) error {
		out, err = e.combat.CheckCombatEnd(participants)
		return err
	})
	return out, err
}
