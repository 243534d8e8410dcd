package combat

import (
	"fmt"

	loose "github.com/aretw0/gamemaster/internal/decode"
	"github.com/aretw0/gamemaster/pkg/dice"
)

const (
	// NeutralSide is assumed for participants that name no side.
	NeutralSide = "neutral"
	// DefaultArmorClass applies to decoded participants without an armor class.
	DefaultArmorClass = 10
)

// Participant is a combatant in an encounter.
type Participant struct {
	ID                  string         `json:"id" mapstructure:"id"`
	Name                string         `json:"name" mapstructure:"name"`
	CurrentHP           int            `json:"current_hp" mapstructure:"current_hp"`
	MaxHP               int            `json:"max_hp" mapstructure:"max_hp"`
	ArmorClass          int            `json:"armor_class" mapstructure:"armor_class"`
	InitiativeModifier  int            `json:"initiative_modifier" mapstructure:"initiative_modifier"`
	Side                string         `json:"side,omitempty" mapstructure:"side"`
	InitiativeAdvantage dice.Advantage `json:"initiative_advantage,omitempty" mapstructure:"initiative_advantage"`
}

// Conscious reports whether the participant still has hit points.
func (p Participant) Conscious() bool {
	return p.CurrentHP > 0
}

// Team returns the participant's side, defaulting to NeutralSide.
func (p Participant) Team() string {
	if p.Side == "" {
		return NeutralSide
	}
	return p.Side
}

// ApplyDamage returns p with amount subtracted from its hit points, never
// below zero. A negative amount heals, capped at MaxHP when one is set.
func ApplyDamage(p Participant, amount int) Participant {
	p.CurrentHP = max(0, p.CurrentHP-amount)
	if p.MaxHP > 0 && p.CurrentHP > p.MaxHP {
		p.CurrentHP = p.MaxHP
	}
	return p
}

// DecodeParticipant builds a Participant from a loose record such as a task
// argument. Missing armor class defaults to DefaultArmorClass and a missing ID
// falls back to the name.
func DecodeParticipant(raw map[string]any) (Participant, error) {
	p := Participant{ArmorClass: DefaultArmorClass}
	if err := decode(raw, &p); err != nil {
		return Participant{}, fmt.Errorf("%w: %v", ErrInvalidParticipant, err)
	}
	if p.ID == "" {
		p.ID = p.Name
	}
	return p, nil
}

// DecodeParticipants decodes every record, stopping at the first failure.
func DecodeParticipants(raw []map[string]any) ([]Participant, error) {
	out := make([]Participant, 0, len(raw))
	for i, r := range raw {
		p, err := DecodeParticipant(r)
		if err != nil {
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decode(input any, output any) error {
	return loose.Loose(input, output)
}
