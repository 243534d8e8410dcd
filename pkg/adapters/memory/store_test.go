package memory_test

import (
	"testing"

	"github.com/aretw0/gamemaster/pkg/adapters/memory"
	"github.com/aretw0/gamemaster/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryCombatLog_Contract(t *testing.T) {
	ports.RunCombatLogContract(t, memory.NewCombatLog())
}
