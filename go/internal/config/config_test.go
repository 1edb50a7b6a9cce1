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

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GATEWAY_PORT", "LOG_LEVEL", "SOCKET_TOKEN_SECRET", "NEXTAUTH_SECRET",
		"ROOM_IDLE_TTL", "ROOM_SWEEP_INTERVAL", "ROOM_SEED", "NATS_URL", "NATS_SUBJECT_PREFIX",
		"DIRECTORY_ENABLED", "DIRECTORY_NOTIFY_CHANNEL", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Addr())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.Empty(t, cfg.TokenSecret)
	assert.Equal(t, 30*time.Minute, cfg.Rooms.IdleTTL)
	assert.Equal(t, []string{"default_room"}, cfg.Rooms.Seed)
	assert.Empty(t, cfg.NATS.URL)
	assert.False(t, cfg.Directory.Enabled)
	assert.Equal(t, "room_created", cfg.Directory.NotifyChannel)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
log_level: debug
rooms:
  idle_ttl: 10m
  seed: [lobby, default_room]
nats:
  url: nats://localhost:4222
cors:
  allowed_origins: [https://a.example]
`), 0o600))

	t.Setenv("ROOM_SWEEP_INTERVAL", "15s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://b.example, https://c.example")
	t.Setenv("DIRECTORY_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, 10*time.Minute, cfg.Rooms.IdleTTL)
	assert.Equal(t, 15*time.Second, cfg.Rooms.SweepInterval)
	assert.Equal(t, []string{"lobby", "default_room"}, cfg.Rooms.Seed)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "focusroom.rooms", cfg.NATS.SubjectPrefix)
	assert.True(t, cfg.Directory.Enabled)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_TokenSecretFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXTAUTH_SECRET", "shared")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "shared", cfg.TokenSecret)

	t.Setenv("SOCKET_TOKEN_SECRET", "dedicated")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "dedicated", cfg.TokenSecret)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "ROOM_IDLE_TTL", value: "soon"},
		{key: "ROOM_SWEEP_INTERVAL", value: "5"},
		{key: "DIRECTORY_ENABLED", value: "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rooms: [unclosed"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLevel_Unknown(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, Config{LogLevel: "loud"}.Level())
	assert.Equal(t, zerolog.WarnLevel, Config{LogLevel: "WARN"}.Level())
}
