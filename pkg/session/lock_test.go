package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/gamemaster/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, state *domain.SessionState) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return nil, domain.ErrSessionNotFound
}
func (m *MockStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_, _ = mgr.Create(ctx, sid, "")
		_ = mgr.Delete(ctx, sid)
	}

	// Every lock entry must be released once its last user is done.
	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
