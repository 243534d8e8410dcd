package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/gamemaster/pkg/combat"
)

// CombatLog implements ports.CombatLog as one JSON Lines file per session.
type CombatLog struct {
	BasePath string

	mu sync.Mutex
}

// NewCombatLog creates a CombatLog rooted at basePath.
// If basePath is empty, it defaults to ".gamemaster/combat".
func NewCombatLog(basePath string) *CombatLog {
	if basePath == "" {
		basePath = filepath.Join(".gamemaster", "combat")
	}
	return &CombatLog{BasePath: basePath}
}

func (l *CombatLog) path(sessionID string) string {
	return filepath.Join(l.BasePath, sessionID+".jsonl")
}

// Append writes rec as one line and fsyncs the file.
func (l *CombatLog) Append(ctx context.Context, sessionID string, rec combat.TurnRecord) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal turn record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure combat log directory: %w", err)
	}
	f, err := os.OpenFile(l.path(sessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open combat log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append turn record: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to fsync combat log: %w", err)
	}
	return nil
}

// List reads every record of the session in append order.
func (l *CombatLog) List(ctx context.Context, sessionID string) ([]combat.TurnRecord, error) {
	if err := checkID(sessionID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []combat.TurnRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open combat log: %w", err)
	}
	defer f.Close()

	recs := []combat.TurnRecord{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec combat.TurnRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("combat log %s line %d: %w", sessionID, line, err)
		}
		recs = append(recs, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read combat log: %w", err)
	}
	return recs, nil
}

// Clear removes the session's log file.
func (l *CombatLog) Clear(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.path(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete combat log: %w", err)
	}
	return nil
}
