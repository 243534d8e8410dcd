package combat

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/gamemaster/pkg/fault"
)

// ActionKind names what an actor does on its turn.
type ActionKind string

const (
	ActionAttack ActionKind = "attack"
	ActionSave   ActionKind = "save"
	ActionCast   ActionKind = "cast"
	ActionMove   ActionKind = "move"
	ActionOther  ActionKind = "other"
)

// CastData annotates a spell cast. Casting draws no dice here.
type CastData struct {
	SpellName  string `json:"spell_name" mapstructure:"spell_name"`
	SpellLevel int    `json:"spell_level" mapstructure:"spell_level"`
}

// MoveData annotates movement.
type MoveData struct {
	Distance  int    `json:"distance" mapstructure:"distance"`
	Direction string `json:"direction" mapstructure:"direction"`
}

// Action is a tagged variant: Kind selects which of the data fields applies.
// Kinds other than the named constants are accepted and recorded generically.
type Action struct {
	Kind        ActionKind  `json:"kind"`
	Attack      *AttackData `json:"attack,omitempty"`
	Save        *SaveData   `json:"save,omitempty"`
	Cast        *CastData   `json:"cast,omitempty"`
	Move        *MoveData   `json:"move,omitempty"`
	Description string      `json:"description,omitempty"`
}

// AttackAction attacks every target of the turn.
func AttackAction(data AttackData) Action {
	return Action{Kind: ActionAttack, Attack: &data}
}

// SaveAction makes the actor roll a saving throw.
func SaveAction(data SaveData) Action {
	return Action{Kind: ActionSave, Save: &data}
}

// CastAction records a spell cast.
func CastAction(spell string, level int) Action {
	return Action{Kind: ActionCast, Cast: &CastData{SpellName: spell, SpellLevel: level}}
}

// MoveAction records movement.
func MoveAction(distance int, direction string) Action {
	return Action{Kind: ActionMove, Move: &MoveData{Distance: distance, Direction: direction}}
}

// OtherAction records any other action by description.
func OtherAction(kind ActionKind, description string) Action {
	return Action{Kind: kind, Description: description}
}

// DecodeAction builds an Action from a kind and loose data, applying the
// defaults of each variant for missing keys.
func DecodeAction(kind string, data map[string]any) (Action, error) {
	k := ActionKind(strings.ToLower(strings.TrimSpace(kind)))
	if k == "" {
		return Action{}, fmt.Errorf("%w: missing action kind", ErrInvalidAction)
	}

	var (
		act    = Action{Kind: k}
		target any
	)
	switch k {
	case ActionAttack:
		act.Attack = &AttackData{DamageDice: DefaultDamageDice}
		target = act.Attack
	case ActionSave:
		act.Save = &SaveData{DC: DefaultSaveDC}
		target = act.Save
	case ActionCast:
		act.Cast = &CastData{SpellLevel: 1}
		target = act.Cast
	case ActionMove:
		act.Move = &MoveData{Direction: "forward"}
		target = act.Move
	default:
		if d, ok := data["description"].(string); ok {
			act.Description = d
		}
		return act, nil
	}

	if data != nil {
		if err := decode(data, target); err != nil {
			return Action{}, fmt.Errorf("%w: %s: %v", ErrInvalidAction, k, err)
		}
	}
	return act, nil
}

// ResultKind tags an entry of a TurnRecord.
type ResultKind string

const (
	ResultAttack    ResultKind = "attack"
	ResultSave      ResultKind = "save"
	ResultSpellCast ResultKind = "spell_cast"
	ResultMovement  ResultKind = "movement"
	ResultAction    ResultKind = "action"
)

// Result is one outcome produced during a turn.
type Result struct {
	Kind        ResultKind    `json:"type"`
	Attack      *AttackResult `json:"attack,omitempty"`
	Save        *SaveResult   `json:"save,omitempty"`
	Cast        *CastData     `json:"cast,omitempty"`
	Move        *MoveData     `json:"move,omitempty"`
	Description string        `json:"description,omitempty"`
}

// TurnRecord is the auditable log entry of one turn.
type TurnRecord struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Actor     string    `json:"actor"`
	Action    Action    `json:"action"`
	Round     int       `json:"round,omitempty"`
	Turn      int       `json:"turn,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Results   []Result  `json:"results"`
}

// ProcessTurn resolves actor's action.
//
// An attack is rolled once per target; a save once for the actor. Casts and
// moves are recorded without rolling. Any other kind yields a generic record
// rather than an error.
func (e *Engine) ProcessTurn(actor Participant, action Action, targets []Participant) (rec TurnRecord, err error) {
	defer fault.Recover("combat.process_turn", &err)

	rec = TurnRecord{
		ID:        e.newID(),
		ActorID:   actor.ID,
		Actor:     actor.Name,
		Action:    action,
		Timestamp: e.now(),
		Results:   []Result{},
	}

	switch action.Kind {
	case ActionAttack:
		data := AttackData{}
		if action.Attack != nil {
			data = *action.Attack
		}
		for _, target := range targets {
			res, err := e.resolveAttack(actor, target, data)
			if err != nil {
				return TurnRecord{}, err
			}
			rec.Results = append(rec.Results, Result{Kind: ResultAttack, Attack: &res})
		}
	case ActionSave:
		data := SaveData{DC: DefaultSaveDC}
		if action.Save != nil {
			data = *action.Save
		}
		res, err := e.resolveSave(actor, data)
		if err != nil {
			return TurnRecord{}, err
		}
		rec.Results = append(rec.Results, Result{Kind: ResultSave, Save: &res})
	case ActionCast:
		data := CastData{SpellLevel: 1}
		if action.Cast != nil {
			data = *action.Cast
		}
		rec.Results = append(rec.Results, Result{Kind: ResultSpellCast, Cast: &data})
	case ActionMove:
		data := MoveData{Direction: "forward"}
		if action.Move != nil {
			data = *action.Move
		}
		rec.Results = append(rec.Results, Result{Kind: ResultMovement, Move: &data})
	default:
		desc := action.Description
		if desc == "" {
			desc = "Unknown action"
		}
		rec.Results = append(rec.Results, Result{Kind: ResultAction, Description: desc})
	}
	return rec, nil
}
