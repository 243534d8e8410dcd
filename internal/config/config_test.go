package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/gamemaster/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 25*time.Minute, cfg.Tasks.SoftLimit)
	assert.Equal(t, 30*time.Minute, cfg.Tasks.HardLimit)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamemaster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
store:
  backend: file
  dir: /tmp/sessions
tasks:
  soft_limit: 1m
  hard_limit: 2m
dice:
  seed: 7
`), 0o644))

	t.Setenv("GAMEMASTER_STORE_DIR", "/var/lib/gamemaster")
	t.Setenv("GAMEMASTER_SAFETY_THEME", "horror")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.BackendFile, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/gamemaster", cfg.Store.Dir, "env wins over the file")
	assert.Equal(t, time.Minute, cfg.Tasks.SoftLimit)
	assert.Equal(t, uint64(7), cfg.Dice.Seed)
	assert.Equal(t, "horror", cfg.Safety.Theme)
	assert.Equal(t, ":8080", cfg.HTTP.Addr, "untouched defaults survive")
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamemaster.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"http": {"addr": ":9090"}}`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("GAMEMASTER_STORE_BACKEND", "redis")
	_, err = config.Load("")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Tasks.SoftLimit = time.Hour
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)

	cfg = config.Default()
	cfg.Log.Format = "xml"
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
}
