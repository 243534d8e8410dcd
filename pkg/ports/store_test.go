package ports_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/aretw0/gamemaster/pkg/combat"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/ports"
)

// MockStore is a minimal SessionStore used to check the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]*domain.SessionState
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]*domain.SessionState)}
}

func (m *MockStore) Save(ctx context.Context, state *domain.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[state.ID] = state.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// MockLog is a minimal CombatLog.
type MockLog struct {
	mu   sync.Mutex
	data map[string][]combat.TurnRecord
}

func (m *MockLog) Append(ctx context.Context, sessionID string, rec combat.TurnRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]combat.TurnRecord)
	}
	m.data[sessionID] = append(m.data[sessionID], rec)
	return nil
}

func (m *MockLog) List(ctx context.Context, sessionID string) ([]combat.TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data[sessionID]), nil
}

func (m *MockLog) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}

func TestCombatLog_Contract(t *testing.T) {
	ports.RunCombatLogContract(t, &MockLog{})
}
