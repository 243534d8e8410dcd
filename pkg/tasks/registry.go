package tasks

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/aretw0/gamemaster/pkg/fault"
)

const (
	DefaultSoftLimit = 25 * time.Minute
	DefaultHardLimit = 30 * time.Minute
)

// Func defines the signature for a task implementation.
// It receives a context and a map of arguments, and returns a result or error.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Task is a registered unit of work.
type Task struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Fn          Func   `json:"-"`
}

// Registry manages the available tasks.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task

	soft   time.Duration
	hard   time.Duration
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithSoftLimit sets the duration after which a running task logs a warning.
func WithSoftLimit(d time.Duration) Option {
	return func(r *Registry) { r.soft = d }
}

// WithHardLimit sets the duration after which a running task is abandoned.
func WithHardLimit(d time.Duration) Option {
	return func(r *Registry) { r.hard = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tasks:  make(map[string]Task),
		soft:   DefaultSoftLimit,
		hard:   DefaultHardLimit,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a task to the registry.
// If a task with the same name exists, it is overwritten.
func (r *Registry) Register(name, description string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = Task{Name: name, Description: description, Fn: fn}
}

// Lookup returns the task registered under name.
func (r *Registry) Lookup(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Tasks lists registered tasks sorted by name.
func (r *Registry) Tasks() []Task {
	r.mu.RLock()
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Task) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Names lists registered task names in sorted order.
func (r *Registry) Names() []string {
	tasks := r.Tasks()
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	return names
}

type outcome struct {
	value any
	err   error
}

// Execute looks up a task by name and runs it under the registry's time
// limits. Returns ErrUnknownTask if the task is not found.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if args == nil {
		args = map[string]any{}
	}

	ctx, cancel := context.WithTimeout(ctx, r.hard)
	defer cancel()

	start := time.Now()
	soft := time.AfterFunc(r.soft, func() {
		r.logger.Warn("task exceeded soft time limit",
			"task", name,
			"limit", r.soft,
		)
	})
	defer soft.Stop()

	done := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() { done <- o }()
		defer fault.Recover(name, &o.err)
		o.value, o.err = t.Fn(ctx, args)
	}()

	select {
	case o := <-done:
		r.logger.Debug("task finished",
			"task", name,
			"duration", time.Since(start),
			"kind", fault.KindOf(o.err),
		)
		return o.value, o.err
	case <-ctx.Done():
		r.logger.Error("task abandoned",
			"task", name,
			"duration", time.Since(start),
			"error", ctx.Err(),
		)
		return nil, fmt.Errorf("%w: %s: %w", ErrTimeLimit, name, ctx.Err())
	}
}
