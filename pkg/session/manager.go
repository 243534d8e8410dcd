package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/lifecycle"
	"github.com/aretw0/gamemaster/pkg/ports"
	"github.com/google/uuid"
)

// ErrNoCombatLog is returned by turn operations when the Manager has no CombatLog.
var ErrNoCombatLog = errors.New("no combat log configured")

// DefaultLockTTL bounds how long a distributed session lock is held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store   ports.SessionStore
	log     ports.CombatLog
	machine *lifecycle.Machine

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	hooks   domain.Hooks
	now     func() time.Time
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithCombatLog enables AppendTurn and Turns.
func WithCombatLog(log ports.CombatLog) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithMachine sets the lifecycle machine used by Transition.
func WithMachine(machine *lifecycle.Machine) Option {
	return func(m *Manager) {
		m.machine = machine
	}
}

// WithHooks registers transition callbacks.
func WithHooks(hooks domain.Hooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock sets the time source for new sessions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator sets the function naming sessions created without an ID.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.machine == nil {
		m.machine = lifecycle.New(lifecycle.WithClock(m.now), lifecycle.WithLogger(m.logger))
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create starts a new session in CREATED status. An empty id is replaced by
// a generated one. Creating an existing session fails with domain.ErrSessionExists.
func (m *Manager) Create(ctx context.Context, sessionID, campaignID string) (*domain.SessionState, error) {
	if sessionID == "" {
		sessionID = m.newID()
	}

	var state *domain.SessionState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, sessionID)
		if err == nil {
			return fmt.Errorf("%w: %s", domain.ErrSessionExists, sessionID)
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		state = domain.NewSessionState(sessionID, campaignID, m.now())
		if err := m.store.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("Session created", "session_id", sessionID, "campaign_id", campaignID)
	return state, nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	var state *domain.SessionState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// Transition applies event to the stored session and commits the result.
//
// The load, lifecycle transition and save run under the session lock. A
// rejected transition leaves the stored state untouched and is still reported
// to the OnTransition hook.
func (m *Manager) Transition(ctx context.Context, sessionID string, event domain.SessionEvent, payload lifecycle.Payload) (*domain.SessionState, lifecycle.Result, error) {
	var (
		state  *domain.SessionState
		result lifecycle.Result
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		next := current.Clone()
		result, err = m.machine.Transition(next, event, payload)
		m.emitTransition(ctx, sessionID, event, current.Status, result.NewStatus, err)
		if err != nil {
			return err
		}

		if err := m.store.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to commit transition: %w", err)
		}
		state = next
		return nil
	})
	if err != nil {
		return nil, lifecycle.Result{}, err
	}
	return state, result, nil
}

func (m *Manager) emitTransition(ctx context.Context, sessionID string, event domain.SessionEvent, from, to domain.SessionStatus, err error) {
	if m.hooks.OnTransition == nil {
		return
	}
	m.hooks.OnTransition(ctx, &domain.TransitionEvent{
		Timestamp: m.now(),
		SessionID: sessionID,
		Event:     event,
		From:      from,
		To:        to,
		Err:       err,
	})
}

// AvailableEvents lists the events the stored session accepts.
func (m *Manager) AvailableEvents(ctx context.Context, sessionID string) ([]domain.SessionEvent, error) {
	state, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return lifecycle.AvailableEvents(state.Status), nil
}

// AppendTurn records a combat turn for an existing session.
func (m *Manager) AppendTurn(ctx context.Context, sessionID string, rec combat.TurnRecord) error {
	if m.log == nil {
		return ErrNoCombatLog
	}
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, sessionID); err != nil {
			return err
		}
		return m.log.Append(ctx, sessionID, rec)
	})
}

// RecordTurn runs produce under the session lock with the current state and
// appends the record it returns. An error from produce appends nothing.
func (m *Manager) RecordTurn(ctx context.Context, sessionID string, produce func(*domain.SessionState) (combat.TurnRecord, error)) (combat.TurnRecord, error) {
	if m.log == nil {
		return combat.TurnRecord{}, ErrNoCombatLog
	}
	var rec combat.TurnRecord
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if rec, err = produce(state); err != nil {
			return err
		}
		return m.log.Append(ctx, sessionID, rec)
	})
	if err != nil {
		return combat.TurnRecord{}, err
	}
	return rec, nil
}

// Turns returns the session's combat log.
func (m *Manager) Turns(ctx context.Context, sessionID string) ([]combat.TurnRecord, error) {
	if m.log == nil {
		return nil, ErrNoCombatLog
	}
	return m.log.List(ctx, sessionID)
}

// Delete removes the session and its combat log.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if m.log != nil {
			if err := m.log.Clear(ctx, sessionID); err != nil {
				return err
			}
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
