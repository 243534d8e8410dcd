package combat

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/gamemaster/pkg/dice"
	"github.com/aretw0/gamemaster/pkg/fault"
	"github.com/google/uuid"
)

// tiebreakRange bounds the random value that orders exact initiative ties.
const tiebreakRange = 1 << 30

// Engine resolves combat operations. It holds no mutable state of its own and
// is safe for concurrent use when its dice source is.
type Engine struct {
	roller   *dice.Roller
	tiebreak dice.Source
	now      func() time.Time
	newID    func() string
}

// Option configures the Engine.
type Option func(*Engine)

// WithSource draws dice and initiative tiebreaks from src.
func WithSource(src dice.Source) Option {
	return func(e *Engine) {
		e.roller = dice.NewRoller(src)
		e.tiebreak = src
	}
}

// WithTiebreakSource draws initiative tiebreaks from a separate source.
func WithTiebreakSource(src dice.Source) Option {
	return func(e *Engine) {
		e.tiebreak = src
	}
}

// WithClock sets the time source used to stamp turn records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator sets the function that names turn records.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// NewEngine creates an Engine backed by dice.DefaultSource unless configured otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		roller:   dice.NewRoller(nil),
		tiebreak: dice.DefaultSource(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Roller exposes the dice roller the engine draws from.
func (e *Engine) Roller() *dice.Roller {
	return e.roller
}

// InitiativeEntry is one participant's place in the turn order.
type InitiativeEntry struct {
	Participant Participant `json:"participant"`
	// Rolls holds both d20 draws when the participant rolled with advantage or disadvantage.
	Rolls     []int `json:"rolls"`
	Roll      int   `json:"initiative_roll"`
	Modifier  int   `json:"initiative_modifier"`
	Total     int   `json:"initiative_total"`
	Tiebreak  int   `json:"tiebreak"`
	TurnOrder int   `json:"turn_order"`
}

// RollInitiative rolls a d20 plus initiative modifier for every participant
// and orders them by total, then modifier, then a random tiebreak, all
// descending. Turn orders run 1..N in that order.
func (e *Engine) RollInitiative(participants []Participant) (entries []InitiativeEntry, err error) {
	defer fault.Recover("combat.roll_initiative", &err)

	entries = make([]InitiativeEntry, 0, len(participants))
	for _, p := range participants {
		adv, err := dice.ParseAdvantage(string(p.InitiativeAdvantage))
		if err != nil {
			return nil, fmt.Errorf("participant %q: %w", p.ID, err)
		}
		roll, err := e.roller.RollD20(adv, p.InitiativeModifier)
		if err != nil {
			return nil, err
		}
		entries = append(entries, InitiativeEntry{
			Participant: p,
			Rolls:       roll.Rolls,
			Roll:        roll.Natural,
			Modifier:    p.InitiativeModifier,
			Total:       roll.Total,
		})
	}
	for i := range entries {
		entries[i].Tiebreak = e.tiebreak.Intn(tiebreakRange)
	}

	slices.SortStableFunc(entries, func(a, b InitiativeEntry) int {
		return cmp.Or(
			cmp.Compare(b.Total, a.Total),
			cmp.Compare(b.Modifier, a.Modifier),
			cmp.Compare(b.Tiebreak, a.Tiebreak),
		)
	})
	for i := range entries {
		entries[i].TurnOrder = i + 1
	}
	return entries, nil
}
