package vlcbridge

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "warn", cfg.EngineLogLevel)
	assert.Equal(t, 44100, cfg.MixRate)
	assert.Equal(t, 5*time.Second, cfg.AudioBuffer)
	assert.Equal(t, DropNewest, cfg.DropPolicy)
	assert.Equal(t, VideoDeferred, cfg.VideoMode)
	assert.Equal(t, 3, cfg.VideoQueue)
	assert.Equal(t, 3*7680*4320, cfg.MaxFrameBytes)
	assert.Equal(t, 10*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.WaitTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/vlcbridge.yaml", []byte(`
mix_rate: 48000
audio_buffer: 2s
drop_policy: oldest
video_mode: direct
args:
  - --no-xlib
  - --quiet
`), 0o644))

	cfg, err := LoadConfig(fs, "/etc/vlcbridge.yaml")
	require.NoError(t, err)

	assert.Equal(t, 48000, cfg.MixRate)
	assert.Equal(t, 2*time.Second, cfg.AudioBuffer)
	assert.Equal(t, DropOldest, cfg.DropPolicy)
	assert.Equal(t, VideoDirect, cfg.VideoMode)
	assert.Equal(t, []string{"--no-xlib", "--quiet"}, cfg.Args)
	assert.Equal(t, 3, cfg.VideoQueue, "unset keys keep their default")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("VLCBRIDGE_VIDEO_QUEUE", "5")
	t.Setenv("VLCBRIDGE_WAIT_TIMEOUT", "250ms")

	cfg, err := LoadConfig(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.VideoQueue)
	assert.Equal(t, 250*time.Millisecond, cfg.WaitTimeout)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(afero.NewMemMapFs(), "/nope.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().MixRate, cfg.MixRate)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("drop_policy: sideways\n"), 0o644))

	_, err := LoadConfig(fs, "/bad.yaml")
	assert.ErrorContains(t, err, "drop_policy")
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"mix rate":     func(c *Config) { c.MixRate = 0 },
		"audio buffer": func(c *Config) { c.AudioBuffer = 0 },
		"video mode":   func(c *Config) { c.VideoMode = "sometimes" },
		"video queue":  func(c *Config) { c.VideoQueue = 0 },
		"frame bytes":  func(c *Config) { c.MaxFrameBytes = -1 },
		"poll":         func(c *Config) { c.PollInterval = 0 },
		"timeout":      func(c *Config) { c.WaitTimeout = -time.Second },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	assert.Equal(t, "debug", NewLogger(cfg).GetLevel().String())

	cfg.LogLevel = "loud"
	assert.Equal(t, "info", NewLogger(cfg).GetLevel().String())

	assert.Equal(t, "warning", cfg.EngineLevel().String())
}
