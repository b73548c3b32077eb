package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/quizwire/quizsync/internal/quiz/audio"
)

// Transport selects the channel adapter backing the session.
const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
)

// Config holds client configuration, loadable from YAML with environment
// overrides on top.
type Config struct {
	Transport     string `yaml:"transport"`
	ChannelURL    string `yaml:"channel_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	LogLevel      string `yaml:"log_level"`

	Audio struct {
		BuzzSound          string `yaml:"buzz_sound"`
		CountdownSound     string `yaml:"countdown_sound"`
		CountdownThreshold int    `yaml:"countdown_threshold"`
	} `yaml:"audio"`
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{
		Transport:     TransportWebSocket,
		ChannelURL:    "ws://localhost:8080/ws",
		SubjectPrefix: "quiz.game",
		LogLevel:      "info",
	}
	ac := audio.DefaultConfig()
	cfg.Audio.BuzzSound = ac.BuzzSound
	cfg.Audio.CountdownSound = ac.CountdownSound
	cfg.Audio.CountdownThreshold = ac.CountdownThreshold
	return cfg
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist) and then applies QUIZ_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to env overrides.
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.Transport = getEnv("QUIZ_TRANSPORT", cfg.Transport)
	cfg.ChannelURL = getEnv("QUIZ_CHANNEL_URL", cfg.ChannelURL)
	cfg.SubjectPrefix = getEnv("QUIZ_SUBJECT_PREFIX", cfg.SubjectPrefix)
	cfg.LogLevel = getEnv("QUIZ_LOG_LEVEL", cfg.LogLevel)
	cfg.Audio.BuzzSound = getEnv("QUIZ_BUZZ_SOUND", cfg.Audio.BuzzSound)
	cfg.Audio.CountdownSound = getEnv("QUIZ_COUNTDOWN_SOUND", cfg.Audio.CountdownSound)
	cfg.Audio.CountdownThreshold = getEnvAsInt("QUIZ_COUNTDOWN_THRESHOLD", cfg.Audio.CountdownThreshold)

	if cfg.Transport != TransportWebSocket && cfg.Transport != TransportNATS {
		return cfg, fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	return cfg, nil
}

// AudioConfig converts the audio section to the controller's config type.
func (c Config) AudioConfig() audio.Config {
	return audio.Config{
		BuzzSound:          c.Audio.BuzzSound,
		CountdownSound:     c.Audio.CountdownSound,
		CountdownThreshold: c.Audio.CountdownThreshold,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
