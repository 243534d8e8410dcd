package gamemaster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/lifecycle"
	"github.com/aretw0/gamemaster/pkg/ports"
	"github.com/aretw0/gamemaster/pkg/session"
)

const (
	OpTransition = "session.transition"
	OpDispatch   = "session.dispatch"
	OpPlayTurn   = "session.play_turn"
	OpNarrate    = "narration.generate"
)

// ErrNotInCombat rejects turns for a session outside COMBAT.
var ErrNotInCombat = errors.New("session is not in combat")

// ErrOutOfTurn is returned by PlayTurn when the actor is not the next
// conscious participant in the session's initiative order.
var ErrOutOfTurn = errors.New("actor is out of turn")

// Fallback text when the narrator fails mid-session.
var fallbackNarration = map[ports.NarrationKind]string{
	ports.NarrateScene:      "The scene fades to black as something goes wrong...",
	ports.NarrateAction:     "The action's outcome is unclear...",
	ports.NarrateTransition: "The scene shifts...",
	ports.NarrateRecap:      "The scribe's notes for this session are lost...",
}

// DispatchResult is what running a transition Effect produced.
type DispatchResult struct {
	Effect     lifecycle.Effect         `json:"effect"`
	Initiative []combat.InitiativeEntry `json:"initiative,omitempty"`
	Turns      int                      `json:"turns,omitempty"`
	Narration  string                   `json:"narration,omitempty"`
}

// TransitionOutcome is the committed state after a transition plus the
// result of dispatching its effect, if any.
type TransitionOutcome struct {
	State    *domain.SessionState `json:"state"`
	Result   lifecycle.Result     `json:"result"`
	Dispatch *DispatchResult      `json:"dispatch,omitempty"`
}

// Transition commits event for the session and dispatches the resulting
// effect. A dispatch failure is returned alongside the committed outcome:
// the transition itself is not rolled back.
func (e *Engine) Transition(ctx context.Context, sessionID string, event domain.SessionEvent, payload lifecycle.Payload) (out *TransitionOutcome, err error) {
	if e.sessions == nil {
		return nil, ErrNoSessions
	}
	err = e.observe(ctx, OpTransition, func(ctx context.Context) error {
		state, res, err := e.sessions.Transition(ctx, sessionID, event, payload)
		if err != nil {
			return err
		}
		out = &TransitionOutcome{State: state, Result: res}
		if state.Status != domain.StatusCombat && state.Status != domain.StatusPaused {
			e.dropEncounter(sessionID)
		}
		if res.Effect == nil {
			return nil
		}
		out.Dispatch, err = e.Dispatch(ctx, *res.Effect)
		return err
	})
	return out, err
}

// Dispatch runs the follow-up work an Effect asks for: combat-init effects
// roll initiative, encounter-init effects narrate the scene and wrap-up
// effects summarise the combat log. Narration is skipped without a narrator.
func (e *Engine) Dispatch(ctx context.Context, eff lifecycle.Effect) (out *DispatchResult, err error) {
	err = e.observe(ctx, OpDispatch, func(ctx context.Context) error {
		out = &DispatchResult{Effect: eff}
		switch eff.Kind {
		case lifecycle.EffectCombatInit:
			if len(eff.Participants) == 0 {
				return nil
			}
			order, err := e.RollInitiative(ctx, eff.Participants)
			if err != nil {
				return err
			}
			out.Initiative = order
			e.trackEncounter(eff.SessionID, order)
		case lifecycle.EffectEncounterInit:
			if e.narrator == nil {
				return nil
			}
			text, err := e.Narrate(ctx, ports.NarrationRequest{
				Kind:      ports.NarrateScene,
				SessionID: eff.SessionID,
				Status:    domain.StatusEncounter,
				Prompt:    eff.Description,
				Context:   map[string]string{"encounter_id": eff.EncounterID},
			})
			if err != nil {
				return err
			}
			out.Narration = text
		case lifecycle.EffectSessionWrapUp:
			e.dropEncounter(eff.SessionID)
			var turns []combat.TurnRecord
			if e.sessions != nil {
				var err error
				turns, err = e.sessions.Turns(ctx, eff.SessionID)
				if err != nil && !errors.Is(err, session.ErrNoCombatLog) {
					return err
				}
			}
			out.Turns = len(turns)
			if e.narrator == nil {
				return nil
			}
			text, err := e.Narrate(ctx, ports.NarrationRequest{
				Kind:      ports.NarrateRecap,
				SessionID: eff.SessionID,
				Status:    domain.StatusCompleted,
				Prompt:    eff.Description,
				Turns:     turns,
			})
			if err != nil {
				return err
			}
			out.Narration = text
		default:
			return fmt.Errorf("unknown effect kind %q", eff.Kind)
		}
		return nil
	})
	return out, err
}

// PlayTurn resolves actor's action and appends it to the session's combat
// log. The session must be in COMBAT for the whole operation and, when its
// combat started with participants, actor must be next in initiative order.
func (e *Engine) PlayTurn(ctx context.Context, sessionID string, actor combat.Participant, action combat.Action, targets []combat.Participant) (rec combat.TurnRecord, err error) {
	if e.sessions == nil {
		return combat.TurnRecord{}, ErrNoSessions
	}
	err = e.observe(ctx, OpPlayTurn, func(ctx context.Context) error {
		rec, err = e.sessions.RecordTurn(ctx, sessionID, func(state *domain.SessionState) (combat.TurnRecord, error) {
			if state.Status != domain.StatusCombat {
				return combat.TurnRecord{}, fmt.Errorf("%w: %s is %s", ErrNotInCombat, sessionID, state.Status)
			}
			if err := e.checkTurn(sessionID, actor.ID); err != nil {
				return combat.TurnRecord{}, err
			}
			rec, err := e.ProcessTurn(ctx, actor, action, targets)
			if err != nil {
				return rec, err
			}
			e.advanceEncounter(sessionID, &rec)
			return rec, nil
		})
		return err
	})
	return rec, err
}

// Encounter returns a snapshot of the round and turn tracking for a session
// whose combat was started with participants.
func (e *Engine) Encounter(sessionID string) (combat.Encounter, bool) {
	e.encMu.Lock()
	defer e.encMu.Unlock()
	enc, ok := e.encounters[sessionID]
	if !ok {
		return combat.Encounter{}, false
	}
	snapshot := *enc
	snapshot.Order = slices.Clone(enc.Order)
	return snapshot, true
}

func (e *Engine) trackEncounter(sessionID string, order []combat.InitiativeEntry) {
	e.encMu.Lock()
	defer e.encMu.Unlock()
	e.encounters[sessionID] = combat.NewEncounter(slices.Clone(order))
}

func (e *Engine) dropEncounter(sessionID string) {
	e.encMu.Lock()
	defer e.encMu.Unlock()
	delete(e.encounters, sessionID)
}

// checkTurn fails when the session tracks an encounter and actorID is not the
// participant due to act next.
func (e *Engine) checkTurn(sessionID, actorID string) error {
	e.encMu.Lock()
	defer e.encMu.Unlock()
	enc, ok := e.encounters[sessionID]
	if !ok {
		return nil
	}
	next, _, _, ok := enc.Peek()
	if !ok || next.Participant.ID == actorID {
		return nil
	}
	return fmt.Errorf("%w: %s acts before %s", ErrOutOfTurn, next.Participant.ID, actorID)
}

// advanceEncounter moves the session's encounter to the next conscious
// participant, stamps rec with the new position and applies its damage.
// Sessions without an encounter leave rec unstamped.
func (e *Engine) advanceEncounter(sessionID string, rec *combat.TurnRecord) {
	e.encMu.Lock()
	defer e.encMu.Unlock()
	enc, ok := e.encounters[sessionID]
	if !ok {
		return
	}
	if _, ok := enc.Next(); !ok {
		return
	}
	enc.Stamp(rec)
	enc.Apply(*rec)
}

// Narrate collects the narrator's output for req. When the provider fails
// the failure is logged and a short fallback line is returned instead.
func (e *Engine) Narrate(ctx context.Context, req ports.NarrationRequest) (text string, err error) {
	if e.narrator == nil {
		return "", ErrNoNarrator
	}
	err = e.observe(ctx, OpNarrate, func(ctx context.Context) error {
		var b strings.Builder
		for chunk, err := range e.narrator.Generate(ctx, req) {
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.logger.WarnContext(ctx, "narration failed",
					"session_id", req.SessionID,
					"kind", req.Kind,
					"error", err,
				)
				text = fallbackNarration[req.Kind]
				return nil
			}
			b.WriteString(chunk)
		}
		text = b.String()
		return nil
	})
	return text, err
}
