package lifecycle

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
)

// EffectKind names follow-up work requested by a transition.
type EffectKind string

const (
	EffectEncounterInit EffectKind = "encounter_init"
	EffectCombatInit    EffectKind = "combat_init"
	EffectSessionWrapUp EffectKind = "session_wrap_up"
)

// Effect describes work the orchestrating caller should dispatch after a
// successful transition.
type Effect struct {
	Kind         EffectKind           `json:"kind"`
	SessionID    string               `json:"session_id"`
	Description  string               `json:"description,omitempty"`
	EncounterID  string               `json:"encounter_id,omitempty"`
	Participants []combat.Participant `json:"participants,omitempty"`
}

// Result is the outcome of a successful transition.
type Result struct {
	Status    string               `json:"status"`
	Previous  domain.SessionStatus `json:"previous_status"`
	NewStatus domain.SessionStatus `json:"new_status"`
	Message   string               `json:"message"`
	Effect    *Effect              `json:"effect,omitempty"`
}

// handler fills in timestamps and builds the effect. It runs only after the
// transition has been validated.
type handler func(s *domain.SessionState, p Payload, now time.Time) *Effect

type rule struct {
	to      domain.SessionStatus
	message string
	apply   handler
}

var (
	pauseRule = rule{to: domain.StatusPaused, message: "Session paused successfully"}
	endRule   = rule{to: domain.StatusCompleted, message: "Session ended successfully", apply: handleEnd}
)

var table = map[domain.SessionStatus]map[domain.SessionEvent]rule{
	domain.StatusCreated: {
		domain.EventStart: {to: domain.StatusStaging, message: "Session started successfully", apply: handleStart},
		domain.EventEnd:   endRule,
	},
	domain.StatusStaging: {
		domain.EventEnd: endRule,
	},
	domain.StatusExploring: {
		domain.EventPause:          pauseRule,
		domain.EventEncounterStart: {to: domain.StatusEncounter, message: "Encounter started successfully", apply: handleEncounterStart},
		domain.EventEnd:            endRule,
	},
	domain.StatusEncounter: {
		domain.EventPause:       pauseRule,
		domain.EventCombatStart: {to: domain.StatusCombat, message: "Combat started successfully", apply: handleCombatStart},
		domain.EventEnd:         endRule,
	},
	domain.StatusCombat: {
		domain.EventPause:     pauseRule,
		domain.EventCombatEnd: {to: domain.StatusExploring, message: "Combat ended successfully"},
		domain.EventEnd:       endRule,
	},
	domain.StatusDowntime: {
		domain.EventEnd: endRule,
	},
	domain.StatusPaused: {
		domain.EventStart:  {to: domain.StatusExploring, message: "Session resumed successfully"},
		domain.EventResume: {to: domain.StatusExploring, message: "Session resumed successfully"},
		domain.EventEnd:    endRule,
	},
}

func handleStart(s *domain.SessionState, _ Payload, now time.Time) *Effect {
	s.StartedAt = &now
	return nil
}

func handleEncounterStart(s *domain.SessionState, p Payload, _ time.Time) *Effect {
	data, _ := p.(EncounterStart)
	return &Effect{
		Kind:        EffectEncounterInit,
		SessionID:   s.ID,
		EncounterID: data.EncounterID,
		Description: cmp.Or(data.Description, "Unknown encounter"),
	}
}

func handleCombatStart(s *domain.SessionState, p Payload, _ time.Time) *Effect {
	data, _ := p.(CombatStart)
	return &Effect{
		Kind:         EffectCombatInit,
		SessionID:    s.ID,
		Description:  cmp.Or(data.Description, "Combat encounter"),
		Participants: slices.Clone(data.Participants),
	}
}

func handleEnd(s *domain.SessionState, p Payload, now time.Time) *Effect {
	data, _ := p.(EndSession)
	s.EndedAt = &now
	return &Effect{
		Kind:        EffectSessionWrapUp,
		SessionID:   s.ID,
		Description: cmp.Or(data.Reason, "Wrap up the session and create summary"),
	}
}

// Machine applies lifecycle transitions. It is stateless apart from its
// options and safe for concurrent use on distinct sessions.
type Machine struct {
	now    func() time.Time
	logger *slog.Logger
}

// Option configures the Machine.
type Option func(*Machine)

// WithClock sets the time source for lifecycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithLogger configures a logger for the Machine.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// New creates a Machine.
func New(opts ...Option) *Machine {
	m := &Machine{
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Transition applies event to state.
//
// On success state is updated in place and the Result may carry an Effect.
// An unlisted (status, event) pair yields an *InvalidTransitionError and a
// payload for another event yields ErrPayloadMismatch; in both cases state is
// left untouched. payload may be nil.
func (m *Machine) Transition(state *domain.SessionState, event domain.SessionEvent, payload Payload) (Result, error) {
	if state == nil {
		return Result{}, ErrNilState
	}

	r, ok := table[state.Status][event]
	if !ok {
		m.logger.Warn("Invalid state transition",
			"session_id", state.ID,
			"status", state.Status,
			"event", event,
		)
		return Result{}, &InvalidTransitionError{From: state.Status, Event: event}
	}
	if payload != nil && payload.Event() != event {
		return Result{}, fmt.Errorf("%w: %s payload for %s", ErrPayloadMismatch, payload.Event(), event)
	}

	now := m.now()
	previous := state.Status
	var effect *Effect
	if r.apply != nil {
		effect = r.apply(state, payload, now)
	}
	state.Status = r.to
	state.UpdatedAt = now

	m.logger.Info("Session state transition",
		"session_id", state.ID,
		"from", previous,
		"to", r.to,
		"event", event,
	)
	return Result{
		Status:    "success",
		Previous:  previous,
		NewStatus: r.to,
		Message:   r.message,
		Effect:    effect,
	}, nil
}

// CanTransition reports whether event has a table entry for status.
func CanTransition(status domain.SessionStatus, event domain.SessionEvent) bool {
	_, ok := table[status][event]
	return ok
}

// Target returns the status event leads to from status.
func Target(status domain.SessionStatus, event domain.SessionEvent) (domain.SessionStatus, bool) {
	r, ok := table[status][event]
	return r.to, ok
}

// AvailableEvents lists, in domain.Events order, exactly the events with a
// table entry for status. Terminal statuses have none.
func AvailableEvents(status domain.SessionStatus) []domain.SessionEvent {
	out := []domain.SessionEvent{}
	for _, e := range domain.Events {
		if CanTransition(status, e) {
			out = append(out, e)
		}
	}
	return out
}
