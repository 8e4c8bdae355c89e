package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
	assert.Equal(t, 2*time.Minute, cfg.Server.LeasePeriod)
	assert.Equal(t, 1500, cfg.Game.StartingCash)
	assert.Equal(t, 5*time.Minute, cfg.Game.DuelTimeLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Database.URL, "persistence is off by default")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  websocket:
    address: ":9999"
game:
  starting_cash: 2000
  duel_time_limit: 3m
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.WebSocket.Address)
	assert.Equal(t, 2000, cfg.Game.StartingCash)
	assert.Equal(t, 3*time.Minute, cfg.Game.DuelTimeLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 45*time.Second, cfg.Game.DecisionTimeout, "unset keys keep defaults")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.Game.StartingCash)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  starting_cash: -5\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
