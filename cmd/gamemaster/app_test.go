package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/gamemaster/internal/config"
	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_Memory(t *testing.T) {
	c := config.Default()
	c.Dice.Seed = 7

	a, err := newApp(context.Background(), c, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, a.tasks.Names(), 9)
	require.NotNil(t, a.engine.Sessions())

	ctx := context.Background()
	_, err = a.engine.Sessions().Create(ctx, "s-1", "")
	require.NoError(t, err)
	out, err := a.engine.Transition(ctx, "s-1", domain.EventStart, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStaging, out.State.Status)

	families, err := a.metrics.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gamemaster_session_transitions_total")
}

func TestNewApp_FileWithRules(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("blocked:\n  spoilers:\n    - '\\bending\\b'\n"), 0o644))

	c := config.Default()
	c.Store.Backend = config.BackendFile
	c.Store.Dir = filepath.Join(dir, "sessions")
	c.Safety.RulesFile = rules

	a, err := newApp(context.Background(), c, logging.NewNop())
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	_, err = a.engine.Sessions().Create(ctx, "s-1", "c-1")
	require.NoError(t, err)
	state, err := a.engine.Sessions().Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, state.Status)
}

func TestNewApp_BadRulesFile(t *testing.T) {
	c := config.Default()
	c.Safety.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := newApp(context.Background(), c, logging.NewNop())
	assert.Error(t, err)
}

func TestRollCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"roll", "2d6", "--json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	var outcome struct {
		Raw   []int `json:"raw"`
		Total int   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &outcome))
	assert.Len(t, outcome.Raw, 2)
	assert.GreaterOrEqual(t, outcome.Total, 2)
}
