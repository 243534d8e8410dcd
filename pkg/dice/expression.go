// Package dice implements dice notation parsing, rolling and check resolution.
//
// An Expression only describes randomness: which dice to roll and which
// results to keep. Flat modifiers such as the "+5" in "1d20+5" are not part of
// the grammar and travel as explicit parameters of the resolution calls.
package dice

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// MaxDice bounds the number of dice a single expression may roll.
const MaxDice = 1000

var (
	diceToken  = regexp.MustCompile(`(\d+)d(\d+)`)
	keepSuffix = regexp.MustCompile(`k([hl])(\d+)`)
)

// KeepMode selects which results survive a keep rule.
type KeepMode string

const (
	KeepHighest KeepMode = "highest"
	KeepLowest  KeepMode = "lowest"
)

// Keep retains the Count highest or lowest results of a roll.
type Keep struct {
	Mode  KeepMode `json:"mode"`
	Count int      `json:"count"`
}

// Expression is the structured form of a dice notation string.
type Expression struct {
	// Pool maps die sides to the number of dice of that size.
	Pool map[int]int `json:"pool"`
	Keep *Keep       `json:"keep,omitempty"`
}

// Parse reads dice notation such as "2d20kh1", "1d8 + 2d6" or "3D8KL2".
//
// Tokens of the same die size accumulate. Whitespace and case are ignored.
// A ParseError is returned when the string contains no dice.
func Parse(expression string) (Expression, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(expression), ""))

	matches := diceToken.FindAllStringSubmatch(normalized, -1)
	if len(matches) == 0 {
		return Expression{}, &ParseError{Expression: expression, Reason: "no dice found"}
	}

	expr := Expression{Pool: make(map[int]int)}
	for _, m := range matches {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			return Expression{}, &ParseError{Expression: expression, Reason: "dice count out of range"}
		}
		sides, err := strconv.Atoi(m[2])
		if err != nil {
			return Expression{}, &ParseError{Expression: expression, Reason: "die size out of range"}
		}
		expr.Pool[sides] += count
	}

	if k := keepSuffix.FindStringSubmatch(normalized); k != nil {
		count, err := strconv.Atoi(k[2])
		if err != nil {
			return Expression{}, &ParseError{Expression: expression, Reason: "keep count out of range"}
		}
		mode := KeepHighest
		if k[1] == "l" {
			mode = KeepLowest
		}
		expr.Keep = &Keep{Mode: mode, Count: count}
	}

	if err := expr.validate(expression); err != nil {
		return Expression{}, err
	}
	return expr, nil
}

// MustParse is like Parse but panics on error.
// It simplifies initialization of expressions known at compile time.
func MustParse(expression string) Expression {
	expr, err := Parse(expression)
	if err != nil {
		panic(err)
	}
	return expr
}

// Validate checks an Expression built by hand rather than by Parse.
func (e Expression) Validate() error {
	return e.validate(e.String())
}

func (e Expression) validate(source string) error {
	total := 0
	for sides, count := range e.Pool {
		if sides < 1 {
			return &ParseError{Expression: source, Reason: "dice must have at least one side"}
		}
		if count < 0 {
			return &ParseError{Expression: source, Reason: "dice count must not be negative"}
		}
		total += count
		if total > MaxDice {
			return &ParseError{Expression: source, Reason: fmt.Sprintf("more than %d dice", MaxDice)}
		}
	}
	if total == 0 {
		return &ParseError{Expression: source, Reason: "no dice to roll"}
	}
	if e.Keep != nil {
		if e.Keep.Count < 1 {
			return &ParseError{Expression: source, Reason: "keep count must be at least 1"}
		}
		if e.Keep.Mode != KeepHighest && e.Keep.Mode != KeepLowest {
			return &ParseError{Expression: source, Reason: "keep mode must be highest or lowest"}
		}
	}
	return nil
}

// Sides returns the die sizes in the pool, largest first. This is also the
// order in which dice are rolled.
func (e Expression) Sides() []int {
	sides := make([]int, 0, len(e.Pool))
	for s, count := range e.Pool {
		if count > 0 {
			sides = append(sides, s)
		}
	}
	slices.Sort(sides)
	slices.Reverse(sides)
	return sides
}

// Count returns the number of dice in the pool.
func (e Expression) Count() int {
	n := 0
	for _, count := range e.Pool {
		n += count
	}
	return n
}

// String renders the canonical notation, e.g. "1d20+2d6kh2".
func (e Expression) String() string {
	var b strings.Builder
	for i, sides := range e.Sides() {
		if i > 0 {
			b.WriteByte('+')
		}
		fmt.Fprintf(&b, "%dd%d", e.Pool[sides], sides)
	}
	if e.Keep != nil {
		mode := "h"
		if e.Keep.Mode == KeepLowest {
			mode = "l"
		}
		fmt.Fprintf(&b, "k%s%d", mode, e.Keep.Count)
	}
	return b.String()
}

// apply returns the kept results. Without a keep rule every result is kept in
// roll order.
func (k *Keep) apply(results []int) []int {
	kept := slices.Clone(results)
	if k == nil {
		return kept
	}
	slices.Sort(kept)
	if k.Mode == KeepHighest {
		slices.Reverse(kept)
	}
	if k.Count < len(kept) {
		kept = kept[:k.Count]
	}
	return kept
}
