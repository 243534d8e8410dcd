package dice

import (
	"maps"

	"github.com/aretw0/gamemaster/pkg/fault"
)

// Degree grades a total against a difficulty class.
type Degree string

const (
	CriticalSuccess Degree = "critical_success"
	Success         Degree = "success"
	Failure         Degree = "failure"
	CriticalFailure Degree = "critical_failure"
)

// Classify applies the degree table: beating dc by 10 or more is a critical
// success, missing it by 10 or more a critical failure.
func Classify(total, dc int) Degree {
	switch {
	case total >= dc+10:
		return CriticalSuccess
	case total <= dc-10:
		return CriticalFailure
	case total >= dc:
		return Success
	default:
		return Failure
	}
}

// IsSuccess reports whether d is one of the success degrees.
func (d Degree) IsSuccess() bool {
	return d == Success || d == CriticalSuccess
}

// DefaultDamageType is used when a damage roll names no type.
const DefaultDamageType = "bludgeoning"

// CheckResult is the outcome of ResolveCheck.
type CheckResult struct {
	Expression    string         `json:"expression"`
	Advantage     Advantage      `json:"advantage"`
	Roll          Outcome        `json:"roll"`
	Modifiers     map[string]int `json:"modifiers,omitempty"`
	ModifierTotal int            `json:"modifier_total"`
	Total         int            `json:"total"`
	DC            int            `json:"dc"`
	Success       bool           `json:"success"`
	Margin        int            `json:"margin"`
	Degree        Degree         `json:"degree"`
}

// DamageResult is the outcome of ResolveDamage.
type DamageResult struct {
	Expression string  `json:"expression"`
	DamageType string  `json:"damage_type"`
	Critical   bool    `json:"critical"`
	Roll       Outcome `json:"roll"`
	Modifier   int     `json:"modifier"`
	Total      int     `json:"total"`
}

// ResolveCheck rolls expr, adds every named modifier and grades the total against dc.
func (r *Roller) ResolveCheck(expr Expression, dc int, adv Advantage, modifiers map[string]int) (res CheckResult, err error) {
	defer fault.Recover("dice.resolve_check", &err)

	if err := expr.Validate(); err != nil {
		return CheckResult{}, err
	}
	adv, err = adv.normalize()
	if err != nil {
		return CheckResult{}, err
	}

	roll := r.roll(expr, adv)
	bonus := 0
	for _, m := range modifiers {
		bonus += m
	}
	total := roll.Total + bonus
	degree := Classify(total, dc)

	return CheckResult{
		Expression:    expr.String(),
		Advantage:     adv,
		Roll:          roll,
		Modifiers:     maps.Clone(modifiers),
		ModifierTotal: bonus,
		Total:         total,
		DC:            dc,
		Success:       total >= dc,
		Margin:        total - dc,
		Degree:        degree,
	}, nil
}

// ResolveDamage rolls expr and adds modifier once. A critical hit rolls the
// pool a second time and sums both draws. The total never drops below zero.
func (r *Roller) ResolveDamage(expr Expression, damageType string, critical bool, modifier int) (res DamageResult, err error) {
	defer fault.Recover("dice.resolve_damage", &err)

	if err := expr.Validate(); err != nil {
		return DamageResult{}, err
	}
	if damageType == "" {
		damageType = DefaultDamageType
	}
	return r.damage(expr, damageType, critical, modifier), nil
}

func (r *Roller) damage(expr Expression, damageType string, critical bool, modifier int) DamageResult {
	roll := r.roll(expr, Normal)
	if critical {
		again := r.roll(expr, Normal)
		roll = Outcome{
			Raw:   append(roll.Raw, again.Raw...),
			Kept:  append(roll.Kept, again.Kept...),
			Total: roll.Total + again.Total,
		}
	}
	return DamageResult{
		Expression: expr.String(),
		DamageType: damageType,
		Critical:   critical,
		Roll:       roll,
		Modifier:   modifier,
		Total:      max(0, roll.Total+modifier),
	}
}

// CalculateDC adds every situational modifier to base.
func CalculateDC(base int, modifiers map[string]int) int {
	dc := base
	for _, m := range modifiers {
		dc += m
	}
	return dc
}
