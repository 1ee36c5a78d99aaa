package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/claude/courtside/internal/models"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Voice   VoiceConfig   `yaml:"voice"`
	Tone    ToneConfig    `yaml:"tone"`
	Workout WorkoutConfig `yaml:"workout"`
	Plans   PlansConfig   `yaml:"plans"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig locates the SQLite database. When SessionFile is set the
// resumable session is kept in that JSON file instead of the database.
type StorageConfig struct {
	Path        string `yaml:"path"`
	SessionFile string `yaml:"session_file"`
}

// AuthConfig is optional; an empty key leaves the loopback API open.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type VoiceConfig struct {
	Command string  `yaml:"command"`
	Rate    float64 `yaml:"rate"`
}

type ToneConfig struct {
	Command string `yaml:"command"`
}

// WorkoutConfig holds the defaults applied when a start request omits them.
type WorkoutConfig struct {
	PauseDuration int  `yaml:"pause_duration"`
	Voice         bool `yaml:"voice"`
	Beeps         bool `yaml:"beeps"`
	WakeLock      bool `yaml:"wake_lock"`
	AutoResume    bool `yaml:"auto_resume"`
}

// Defaults converts the workout section to the coach's per-run config.
func (w WorkoutConfig) Defaults() models.WorkoutConfig {
	return models.WorkoutConfig{
		PauseDuration:   w.PauseDuration,
		VoiceEnabled:    w.Voice,
		BeepsEnabled:    w.Beeps,
		WakeLockEnabled: w.WakeLock,
	}
}

type PlansConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	d := models.DefaultWorkoutConfig()
	return &Config{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8765},
		Storage: StorageConfig{Path: "courtside.db"},
		Voice:   VoiceConfig{Rate: 0.9},
		Workout: WorkoutConfig{
			PauseDuration: d.PauseDuration,
			Voice:         d.VoiceEnabled,
			Beeps:         d.BeepsEnabled,
			WakeLock:      d.WakeLockEnabled,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. Env vars use the prefix COURTSIDE_ and
// underscore-separated paths:
//
//	COURTSIDE_SERVER_HOST, COURTSIDE_SERVER_PORT,
//	COURTSIDE_STORAGE_PATH, COURTSIDE_STORAGE_SESSION_FILE,
//	COURTSIDE_AUTH_API_KEY, COURTSIDE_VOICE_COMMAND, COURTSIDE_VOICE_RATE,
//	COURTSIDE_TONE_COMMAND,
//	COURTSIDE_WORKOUT_PAUSE_DURATION, COURTSIDE_WORKOUT_VOICE,
//	COURTSIDE_WORKOUT_BEEPS, COURTSIDE_WORKOUT_WAKE_LOCK,
//	COURTSIDE_WORKOUT_AUTO_RESUME, COURTSIDE_PLANS_DIR,
//	COURTSIDE_LOG_FILE, COURTSIDE_LOG_LEVEL
//
// A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("COURTSIDE_SERVER_HOST", &cfg.Server.Host)
	setInt("COURTSIDE_SERVER_PORT", &cfg.Server.Port)
	setString("COURTSIDE_STORAGE_PATH", &cfg.Storage.Path)
	setString("COURTSIDE_STORAGE_SESSION_FILE", &cfg.Storage.SessionFile)
	setString("COURTSIDE_AUTH_API_KEY", &cfg.Auth.APIKey)
	setString("COURTSIDE_VOICE_COMMAND", &cfg.Voice.Command)
	if v := os.Getenv("COURTSIDE_VOICE_RATE"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Voice.Rate = r
		}
	}
	setString("COURTSIDE_TONE_COMMAND", &cfg.Tone.Command)
	setInt("COURTSIDE_WORKOUT_PAUSE_DURATION", &cfg.Workout.PauseDuration)
	setBool("COURTSIDE_WORKOUT_VOICE", &cfg.Workout.Voice)
	setBool("COURTSIDE_WORKOUT_BEEPS", &cfg.Workout.Beeps)
	setBool("COURTSIDE_WORKOUT_WAKE_LOCK", &cfg.Workout.WakeLock)
	setBool("COURTSIDE_WORKOUT_AUTO_RESUME", &cfg.Workout.AutoResume)
	setString("COURTSIDE_PLANS_DIR", &cfg.Plans.Dir)
	setString("COURTSIDE_LOG_FILE", &cfg.Log.File)
	setString("COURTSIDE_LOG_LEVEL", &cfg.Log.Level)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Voice.Rate <= 0 || c.Voice.Rate > 4 {
		return fmt.Errorf("voice.rate must be in (0, 4]")
	}
	if !models.ValidPauseDuration(c.Workout.PauseDuration) {
		return fmt.Errorf("workout.pause_duration must be one of %v", models.PauseDurationPresets)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}
