package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, TransportWebSocket, cfg.Transport)
	assert.Equal(t, 10, cfg.Audio.CountdownThreshold)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport: nats
channel_url: nats://broker:4222
subject_prefix: quiz.game.42
audio:
  buzz_sound: custom/buzz.ogg
  countdown_threshold: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportNATS, cfg.Transport)
	assert.Equal(t, "nats://broker:4222", cfg.ChannelURL)
	assert.Equal(t, "quiz.game.42", cfg.SubjectPrefix)
	assert.Equal(t, "custom/buzz.ogg", cfg.Audio.BuzzSound)
	assert.Equal(t, 5, cfg.Audio.CountdownThreshold)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("channel_url: ws://file:8080/ws\n"), 0o644))

	t.Setenv("QUIZ_CHANNEL_URL", "ws://env:9090/ws")
	t.Setenv("QUIZ_COUNTDOWN_THRESHOLD", "15")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://env:9090/ws", cfg.ChannelURL)
	assert.Equal(t, 15, cfg.Audio.CountdownThreshold)
}

func TestUnknownTransportRejected(t *testing.T) {
	t.Setenv("QUIZ_TRANSPORT", "carrier-pigeon")

	_, err := Load("")
	assert.Error(t, err)
}

func TestAudioConfigConversion(t *testing.T) {
	cfg := Default()
	ac := cfg.AudioConfig()

	assert.Equal(t, cfg.Audio.BuzzSound, ac.BuzzSound)
	assert.Equal(t, cfg.Audio.CountdownSound, ac.CountdownSound)
	assert.Equal(t, cfg.Audio.CountdownThreshold, ac.CountdownThreshold)
}
