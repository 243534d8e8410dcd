package lifecycle

import (
	"fmt"

	"github.com/aretw0/gamemaster/internal/decode"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
)

// Payload carries the data one event needs. Each implementation belongs to
// exactly one event.
type Payload interface {
	Event() domain.SessionEvent
}

// EncounterStart accompanies ENCOUNTER_START.
type EncounterStart struct {
	EncounterID string `json:"encounter_id,omitempty" mapstructure:"encounter_id"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}

func (EncounterStart) Event() domain.SessionEvent { return domain.EventEncounterStart }

// CombatStart accompanies COMBAT_START.
type CombatStart struct {
	Description  string               `json:"description,omitempty"`
	Participants []combat.Participant `json:"participants,omitempty"`
}

func (CombatStart) Event() domain.SessionEvent { return domain.EventCombatStart }

// CombatEnd accompanies COMBAT_END.
type CombatEnd struct {
	Winner  string `json:"winner,omitempty" mapstructure:"winner"`
	Summary string `json:"summary,omitempty" mapstructure:"summary"`
}

func (CombatEnd) Event() domain.SessionEvent { return domain.EventCombatEnd }

// EndSession accompanies END.
type EndSession struct {
	Reason string `json:"reason,omitempty" mapstructure:"reason"`
}

func (EndSession) Event() domain.SessionEvent { return domain.EventEnd }

// DecodePayload builds the payload variant for event from loose data.
// Events without a variant, and empty data, yield a nil payload.
func DecodePayload(event domain.SessionEvent, data map[string]any) (Payload, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch event {
	case domain.EventEncounterStart:
		var p EncounterStart
		if err := decodeInto(event, data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case domain.EventCombatEnd:
		var p CombatEnd
		if err := decodeInto(event, data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case domain.EventEnd:
		var p EndSession
		if err := decodeInto(event, data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case domain.EventCombatStart:
		var raw struct {
			Description  string           `mapstructure:"description"`
			Participants []map[string]any `mapstructure:"participants"`
		}
		if err := decodeInto(event, data, &raw); err != nil {
			return nil, err
		}
		participants, err := combat.DecodeParticipants(raw.Participants)
		if err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", event, err)
		}
		return CombatStart{Description: raw.Description, Participants: participants}, nil
	default:
		return nil, nil
	}
}

func decodeInto(event domain.SessionEvent, data map[string]any, out any) error {
	if err := decode.Loose(data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", event, err)
	}
	return nil
}
