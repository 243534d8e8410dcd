package dice

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/gamemaster/pkg/fault"
)

// Advantage selects how a d20 is drawn.
type Advantage string

const (
	Normal           Advantage = "normal"
	WithAdvantage    Advantage = "advantage"
	WithDisadvantage Advantage = "disadvantage"
)

// ParseAdvantage accepts "normal", "advantage" or "disadvantage" in any case.
// The empty string means normal.
func ParseAdvantage(s string) (Advantage, error) {
	switch a := Advantage(strings.ToLower(strings.TrimSpace(s))); a {
	case "", Normal:
		return Normal, nil
	case WithAdvantage, WithDisadvantage:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAdvantage, s)
	}
}

func (a Advantage) normalize() (Advantage, error) {
	if a == "" {
		return Normal, nil
	}
	return ParseAdvantage(string(a))
}

// prefers reports whether candidate replaces current under this mode.
func (a Advantage) prefers(candidate, current int) bool {
	switch a {
	case WithAdvantage:
		return candidate > current
	case WithDisadvantage:
		return candidate < current
	default:
		return false
	}
}

// Outcome is the result of rolling an Expression.
type Outcome struct {
	// Raw lists every die drawn, including a discarded advantage d20.
	Raw   []int `json:"raw"`
	Kept  []int `json:"kept"`
	Total int   `json:"total"`
}

// D20Roll is a single d20 check drawn with optional advantage.
type D20Roll struct {
	Rolls     []int     `json:"rolls"`
	Natural   int       `json:"natural"`
	Modifier  int       `json:"modifier"`
	Total     int       `json:"total"`
	Advantage Advantage `json:"advantage"`
}

// Roller draws dice from a Source.
type Roller struct {
	src Source
}

// NewRoller returns a Roller drawing from src, or from DefaultSource when src is nil.
func NewRoller(src Source) *Roller {
	if src == nil {
		src = DefaultSource()
	}
	return &Roller{src: src}
}

// Source returns the roller's random source.
func (r *Roller) Source() Source {
	return r.src
}

func (r *Roller) die(sides int) int {
	v := r.src.Intn(sides)
	if v < 0 || v >= sides {
		panic(fmt.Sprintf("source returned %d for a d%d", v, sides))
	}
	return v + 1
}

// Roll draws every die in expr.
//
// Advantage and disadvantage only affect the first d20 of the pool: one extra
// d20 is drawn and the better (or worse) of the two stands in for it before
// keep rules apply. Pools without a d20 ignore adv.
func (r *Roller) Roll(expr Expression, adv Advantage) (out Outcome, err error) {
	defer fault.Recover("dice.roll", &err)

	if err := expr.Validate(); err != nil {
		return Outcome{}, err
	}
	adv, err = adv.normalize()
	if err != nil {
		return Outcome{}, err
	}
	return r.roll(expr, adv), nil
}

func (r *Roller) roll(expr Expression, adv Advantage) Outcome {
	raw := make([]int, 0, expr.Count()+1)
	firstD20 := -1
	for _, sides := range expr.Sides() {
		for range expr.Pool[sides] {
			if sides == 20 && firstD20 < 0 {
				firstD20 = len(raw)
			}
			raw = append(raw, r.die(sides))
		}
	}

	candidates := slices.Clone(raw)
	if adv != Normal && firstD20 >= 0 {
		extra := r.die(20)
		raw = append(raw, extra)
		if adv.prefers(extra, candidates[firstD20]) {
			candidates[firstD20] = extra
		}
	}

	kept := expr.Keep.apply(candidates)
	return Outcome{Raw: raw, Kept: kept, Total: sum(kept)}
}

// RollD20 draws one d20 (two with advantage or disadvantage) and adds modifier.
func (r *Roller) RollD20(adv Advantage, modifier int) (out D20Roll, err error) {
	defer fault.Recover("dice.roll_d20", &err)

	adv, err = adv.normalize()
	if err != nil {
		return D20Roll{}, err
	}
	return r.rollD20(adv, modifier), nil
}

func (r *Roller) rollD20(adv Advantage, modifier int) D20Roll {
	first := r.die(20)
	out := D20Roll{
		Rolls:     []int{first},
		Natural:   first,
		Modifier:  modifier,
		Total:     first + modifier,
		Advantage: adv,
	}
	if adv == Normal {
		return out
	}
	second := r.die(20)
	out.Rolls = append(out.Rolls, second)
	if adv.prefers(second+modifier, out.Total) {
		out.Natural = second
		out.Total = second + modifier
	}
	return out
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
