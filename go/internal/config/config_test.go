package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "racer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, 500*time.Millisecond, cfg.Race.PollInterval)
	assert.Equal(t, 3, cfg.Race.CountdownFrom)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
race_service:
  url: http://race:8000
gateway:
  port: "9090"
  teardown_on_close: false
race:
  poll_interval: 250ms
  countdown_from: 5
nats:
  enabled: true
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://race:8000", cfg.RaceService.URL)
	assert.Equal(t, 30*time.Second, cfg.RaceService.Timeout)
	assert.Equal(t, "9090", cfg.Gateway.Port)
	assert.False(t, cfg.Gateway.TeardownOnClose)
	assert.Equal(t, 250*time.Millisecond, cfg.Race.PollInterval)
	assert.Equal(t, 5, cfg.Race.CountdownFrom)
	assert.Equal(t, time.Second, cfg.Race.CountdownInterval)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "race_service:\n  url: http://from-file\n")
	t.Setenv("RACE_SERVICE_URL", "http://from-env")
	t.Setenv("RACE_POLL_INTERVAL", "1s")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("RACE_COUNTDOWN_FROM", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", cfg.RaceService.URL)
	assert.Equal(t, time.Second, cfg.Race.PollInterval)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, 3, cfg.Race.CountdownFrom, "unparsable values keep the previous setting")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "malformed yaml", content: "race: [", errMsg: "failed to parse config"},
		{name: "zero poll interval", content: "race:\n  poll_interval: 0s\n", errMsg: "poll_interval"},
		{name: "negative countdown", content: "race:\n  countdown_from: -1\n", errMsg: "countdown_from"},
		{name: "bad log level", content: "log_level: loud\n", errMsg: "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
