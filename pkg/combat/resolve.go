package combat

import (
	"cmp"

	"github.com/aretw0/gamemaster/pkg/dice"
	"github.com/aretw0/gamemaster/pkg/fault"
)

const (
	// DefaultDamageDice is rolled when an attack names no damage dice.
	DefaultDamageDice = "1d6"
	// DefaultSaveDC applies to decoded saves without a DC.
	DefaultSaveDC = 10
)

// AttackData describes a single attack.
type AttackData struct {
	AttackModifier int            `json:"attack_modifier" mapstructure:"attack_modifier"`
	Advantage      dice.Advantage `json:"advantage,omitempty" mapstructure:"advantage"`
	// DamageDice is dice notation; flat terms in it are ignored, use DamageModifier.
	DamageDice     string `json:"damage_dice,omitempty" mapstructure:"damage_dice"`
	DamageModifier int    `json:"damage_modifier" mapstructure:"damage_modifier"`
	DamageType     string `json:"damage_type,omitempty" mapstructure:"damage_type"`
}

// AttackResult is the outcome of ResolveAttack.
type AttackResult struct {
	AttackerID   string             `json:"attacker_id"`
	Attacker     string             `json:"attacker"`
	TargetID     string             `json:"target_id"`
	Target       string             `json:"target"`
	Roll         dice.D20Roll       `json:"roll"`
	TargetAC     int                `json:"target_ac"`
	Hit          bool               `json:"hit"`
	CriticalHit  bool               `json:"critical_hit"`
	CriticalMiss bool               `json:"critical_miss"`
	Degree       dice.Degree        `json:"degree"`
	Damage       int                `json:"damage"`
	DamageRoll   *dice.DamageResult `json:"damage_roll,omitempty"`
}

// SaveData describes a saving throw.
type SaveData struct {
	SaveModifier int            `json:"save_modifier" mapstructure:"save_modifier"`
	Advantage    dice.Advantage `json:"advantage,omitempty" mapstructure:"advantage"`
	DC           int            `json:"dc" mapstructure:"dc"`
	SaveType     string         `json:"save_type,omitempty" mapstructure:"save_type"`
}

// SaveResult is the outcome of ResolveSave.
type SaveResult struct {
	SaverID   string       `json:"saver_id"`
	Saver     string       `json:"saver"`
	SaveType  string       `json:"save_type,omitempty"`
	Roll      dice.D20Roll `json:"roll"`
	DC        int          `json:"dc"`
	Success   bool         `json:"success"`
	Natural20 bool         `json:"natural_20"`
	Natural1  bool         `json:"natural_1"`
	Degree    dice.Degree  `json:"degree"`
}

// ResolveAttack rolls attacker's d20 against target's armor class.
//
// A natural 20 always hits and doubles the damage dice; a natural 1 always
// misses. Damage is rolled only on a hit and never drops below zero.
func (e *Engine) ResolveAttack(attacker, target Participant, data AttackData) (res AttackResult, err error) {
	defer fault.Recover("combat.resolve_attack", &err)
	return e.resolveAttack(attacker, target, data)
}

func (e *Engine) resolveAttack(attacker, target Participant, data AttackData) (AttackResult, error) {
	damage, err := dice.Parse(cmp.Or(data.DamageDice, DefaultDamageDice))
	if err != nil {
		return AttackResult{}, err
	}
	roll, err := e.roller.RollD20(data.Advantage, data.AttackModifier)
	if err != nil {
		return AttackResult{}, err
	}

	res := AttackResult{
		AttackerID:   attacker.ID,
		Attacker:     attacker.Name,
		TargetID:     target.ID,
		Target:       target.Name,
		Roll:         roll,
		TargetAC:     target.ArmorClass,
		CriticalHit:  roll.Natural == 20,
		CriticalMiss: roll.Natural == 1,
	}
	switch {
	case res.CriticalHit:
		res.Hit = true
		res.Degree = dice.CriticalSuccess
	case res.CriticalMiss:
		res.Hit = false
		res.Degree = dice.CriticalFailure
	default:
		res.Hit = roll.Total >= target.ArmorClass
		res.Degree = dice.Classify(roll.Total, target.ArmorClass)
	}

	if res.Hit {
		dmg, err := e.roller.ResolveDamage(damage, data.DamageType, res.CriticalHit, data.DamageModifier)
		if err != nil {
			return AttackResult{}, err
		}
		res.DamageRoll = &dmg
		res.Damage = dmg.Total
	}
	return res, nil
}

// ResolveSave rolls saver's d20 plus save modifier against data.DC.
func (e *Engine) ResolveSave(saver Participant, data SaveData) (res SaveResult, err error) {
	defer fault.Recover("combat.resolve_save", &err)
	return e.resolveSave(saver, data)
}

func (e *Engine) resolveSave(saver Participant, data SaveData) (SaveResult, error) {
	roll, err := e.roller.RollD20(data.Advantage, data.SaveModifier)
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{
		SaverID:   saver.ID,
		Saver:     saver.Name,
		SaveType:  data.SaveType,
		Roll:      roll,
		DC:        data.DC,
		Success:   roll.Total >= data.DC,
		Natural20: roll.Natural == 20,
		Natural1:  roll.Natural == 1,
		Degree:    dice.Classify(roll.Total, data.DC),
	}, nil
}
