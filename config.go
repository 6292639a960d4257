package vlcbridge

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// DropPolicy chooses which audio is lost when the ring is full.
type DropPolicy string

const (
	// DropNewest rejects incoming frames and keeps what is queued.
	DropNewest DropPolicy = "newest"
	// DropOldest discards queued frames to make room.
	DropOldest DropPolicy = "oldest"
)

// VideoMode chooses how unlocked frames reach the VideoSink.
type VideoMode string

const (
	// VideoDirect hands frames to the sink on the engine thread.
	VideoDirect VideoMode = "direct"
	// VideoDeferred queues frames for the host update tick.
	VideoDeferred VideoMode = "deferred"
)

// EnvPrefix prefixes environment overrides, VLCBRIDGE_MIX_RATE for mix_rate.
const EnvPrefix = "VLCBRIDGE"

var envKeyReplacer = strings.NewReplacer(".", "_")

// Config holds the bridge settings.
type Config struct {
	LogLevel       string `mapstructure:"log_level"`
	LogJSON        bool   `mapstructure:"log_json"`
	EngineLogLevel string `mapstructure:"engine_log_level"`

	// Args are passed to the engine on creation.
	Args        []string `mapstructure:"args"`
	LibraryPath string   `mapstructure:"library_path"`

	MixRate     int           `mapstructure:"mix_rate"`
	AudioBuffer time.Duration `mapstructure:"audio_buffer"`
	DropPolicy  DropPolicy    `mapstructure:"drop_policy"`

	VideoMode     VideoMode `mapstructure:"video_mode"`
	VideoQueue    int       `mapstructure:"video_queue"`
	MaxFrameBytes int       `mapstructure:"max_frame_bytes"`

	PollInterval time.Duration `mapstructure:"poll_interval"`
	WaitTimeout  time.Duration `mapstructure:"wait_timeout"`
}

var defaults = map[string]any{
	"log_level":        "info",
	"log_json":         false,
	"engine_log_level": "warn",
	"args":             []string{},
	"library_path":     "",
	"mix_rate":         44100,
	"audio_buffer":     5 * time.Second,
	"drop_policy":      string(DropNewest),
	"video_mode":       string(VideoDeferred),
	"video_queue":      3,
	"max_frame_bytes":  3 * 7680 * 4320,
	"poll_interval":    10 * time.Millisecond,
	"wait_timeout":     10 * time.Second,
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	cfg, err := decodeConfig(newViper())
	if err != nil {
		panic(err)
	}

	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	for name, value := range defaults {
		v.SetDefault(name, value)
	}

	return v
}

// LoadConfig reads path from fs over the defaults, then applies
// environment overrides. A missing file is not an error and an
// empty path skips the file entirely.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	v := newViper()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if path != "" {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return Config{}, fmt.Errorf("stat config: %w", err)
		}

		if exists {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func decodeConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate rejects settings the pipelines cannot run with.
func (c Config) Validate() error {
	switch {
	case c.MixRate <= 0:
		return fmt.Errorf("mix_rate must be positive, got %d", c.MixRate)
	case c.AudioBuffer <= 0:
		return fmt.Errorf("audio_buffer must be positive, got %s", c.AudioBuffer)
	case c.DropPolicy != DropNewest && c.DropPolicy != DropOldest:
		return fmt.Errorf("unknown drop_policy %q", c.DropPolicy)
	case c.VideoMode != VideoDirect && c.VideoMode != VideoDeferred:
		return fmt.Errorf("unknown video_mode %q", c.VideoMode)
	case c.VideoQueue < 1:
		return fmt.Errorf("video_queue must be at least 1, got %d", c.VideoQueue)
	case c.MaxFrameBytes <= 0:
		return fmt.Errorf("max_frame_bytes must be positive, got %d", c.MaxFrameBytes)
	case c.PollInterval <= 0:
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	case c.WaitTimeout < 0:
		return fmt.Errorf("wait_timeout must not be negative, got %s", c.WaitTimeout)
	}

	return nil
}
