package gamemaster

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/dice"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/fault"
	"github.com/aretw0/gamemaster/pkg/ports"
	"github.com/aretw0/gamemaster/pkg/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/gamemaster"

var (
	// ErrNoSessions is returned by session operations on an engine built
	// without WithSessions.
	ErrNoSessions = errors.New("engine has no session manager")
	// ErrNoNarrator is returned by Narrate on an engine built without
	// WithNarrator.
	ErrNoNarrator = errors.New("engine has no narrator")
)

// Engine is the high-level entry point for the gamemaster library.
// It wraps the dice, combat and session packages behind one instrumented
// boundary: every operation is traced, timed, classified and reported to
// the registered hooks.
type Engine struct {
	combat   *combat.Engine
	sessions *session.Manager
	narrator ports.Narrator

	// encounters tracks round and turn of every session in combat.
	encMu      sync.Mutex
	encounters map[string]*combat.Encounter

	source     dice.Source
	combatOpts []combat.Option
	hooks      domain.Hooks
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSource sets the randomness behind every roll.
func WithSource(src dice.Source) Option {
	return func(e *Engine) {
		e.source = src
	}
}

// WithSeed makes every roll reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.source = dice.NewSeededSource(seed)
	}
}

// WithCombatOptions passes options through to the combat engine.
func WithCombatOptions(opts ...combat.Option) Option {
	return func(e *Engine) {
		e.combatOpts = append(e.combatOpts, opts...)
	}
}

// WithSessions attaches a session manager for lifecycle operations.
func WithSessions(m *session.Manager) Option {
	return func(e *Engine) {
		e.sessions = m
	}
}

// WithNarrator attaches a narration provider.
func WithNarrator(n ports.Narrator) Option {
	return func(e *Engine) {
		e.narrator = n
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithClock sets the time source for operation timing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes a new Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		encounters: make(map[string]*combat.Encounter),
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}

	combatOpts := e.combatOpts
	if e.source != nil {
		combatOpts = append([]combat.Option{combat.WithSource(e.source)}, combatOpts...)
	}
	e.combat = combat.NewEngine(combatOpts...)
	return e
}

// Sessions returns the attached session manager, or nil.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Combat returns the underlying combat engine.
func (e *Engine) Combat() *combat.Engine {
	return e.combat
}

// observe runs fn as the named operation. The error is returned unchanged.
func (e *Engine) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, op)
	defer span.End()

	start := e.now()
	err := func() (err error) {
		defer fault.Recover(op, &err)
		return fn(ctx)
	}()
	elapsed := e.now().Sub(start)

	kind := fault.KindOf(err)
	span.SetAttributes(attribute.String("gamemaster.outcome", string(kind)))
	switch kind {
	case fault.KindFault:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.ErrorContext(ctx, "engine fault", "operation", op, "error", err)
	case fault.KindDomain:
		span.SetStatus(codes.Error, err.Error())
		e.logger.DebugContext(ctx, "operation rejected", "operation", op, "error", err)
	}

	if e.hooks.OnOperation != nil {
		e.hooks.OnOperation(ctx, &domain.OperationEvent{
			Timestamp: start,
			Operation: op,
			Duration:  elapsed,
			Outcome:   string(kind),
			Err:       err,
		})
	}
	return err
}
