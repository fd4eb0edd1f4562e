package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/notify"
	"github.com/fakeyudi/hydro/internal/status"
)

// Config holds all configurable hydro settings.
type Config struct {
	RemoteURL       string  `json:"remote_url,omitempty" yaml:"remote_url"` // empty → local-only
	Goal            float64 `json:"goal,omitempty" yaml:"goal"`             // liters, for a fresh record
	HistoryLimit    int     `json:"history_limit,omitempty" yaml:"history_limit"`
	StreakPolicy    string  `json:"streak_policy,omitempty" yaml:"streak_policy"` // "increment" | "preserve"
	DebounceMs      int     `json:"debounce_ms,omitempty" yaml:"debounce_ms"`
	GuardMs         int     `json:"guard_ms,omitempty" yaml:"guard_ms"`
	RemoteTimeoutMs int     `json:"remote_timeout_ms,omitempty" yaml:"remote_timeout_ms"`
	CachePath       string  `json:"cache_path,omitempty" yaml:"cache_path"`
	MQTTBroker      string  `json:"mqtt_broker,omitempty" yaml:"mqtt_broker"` // empty disables the broadcast
	MQTTTopic       string  `json:"mqtt_topic,omitempty" yaml:"mqtt_topic"`
	LogLevel        string  `json:"log_level,omitempty" yaml:"log_level"`
	LogFile         string  `json:"log_file,omitempty" yaml:"log_file"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Goal:            hydration.DefaultGoal,
		HistoryLimit:    hydration.DefaultHistoryLimit,
		StreakPolicy:    string(hydration.DefaultStreakPolicy),
		DebounceMs:      1200,
		GuardMs:         600,
		RemoteTimeoutMs: 3000,
		MQTTTopic:       notify.DefaultTopic,
		LogLevel:        "info",
	}
}

// Dir returns ~/.config/hydro.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hydro"), nil
}

// GlobalExists reports whether a global config file is present.
func GlobalExists() bool {
	dir, err := Dir()
	if err != nil {
		return false
	}
	for _, name := range []string{"config.json", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// LoadGlobal reads ~/.config/hydro/config.json, or config.yaml when there is
// no JSON file. Returns defaults if neither exists.
func LoadGlobal() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	cfg, err := loadFile(filepath.Join(dir, "config.json"), false)
	if err != nil || cfg != nil {
		return cfg, err
	}
	return loadFile(filepath.Join(dir, "config.yaml"), true)
}

// LoadProject reads .hydroconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".hydroconfig", false)
}

// loadFile reads and parses a config file. Files ending in .yaml or .yml are
// YAML, anything else JSON. An absent file yields defaults when
// returnDefaults is set and nil otherwise.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// SaveGlobal writes cfg to ~/.config/hydro/config.json and returns the path.
func SaveGlobal(cfg Config) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// Merge combines global and project configs, with project taking precedence.
// Zero values fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c != nil {
			overlay(&result, c)
		}
	}
	return result
}

func overlay(dst, src *Config) {
	if src.RemoteURL != "" {
		dst.RemoteURL = src.RemoteURL
	}
	if src.Goal > 0 {
		dst.Goal = src.Goal
	}
	if src.HistoryLimit > 0 {
		dst.HistoryLimit = src.HistoryLimit
	}
	if src.StreakPolicy != "" {
		dst.StreakPolicy = src.StreakPolicy
	}
	if src.DebounceMs > 0 {
		dst.DebounceMs = src.DebounceMs
	}
	if src.GuardMs > 0 {
		dst.GuardMs = src.GuardMs
	}
	if src.RemoteTimeoutMs > 0 {
		dst.RemoteTimeoutMs = src.RemoteTimeoutMs
	}
	if src.CachePath != "" {
		dst.CachePath = src.CachePath
	}
	if src.MQTTBroker != "" {
		dst.MQTTBroker = src.MQTTBroker
	}
	if src.MQTTTopic != "" {
		dst.MQTTTopic = src.MQTTTopic
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogFile != "" {
		dst.LogFile = src.LogFile
	}
}

// ApplyEnv overrides cfg from HYDRO_REMOTE_URL, HYDRO_CACHE_PATH and
// HYDRO_LOG_LEVEL when they are set.
func ApplyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("HYDRO_REMOTE_URL"); ok {
		cfg.RemoteURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("HYDRO_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("HYDRO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Goal < 0 {
		return fmt.Errorf("goal must be positive, got %v", c.Goal)
	}
	return nil
}

// Mode is LocalOnly without a remote URL and Hybrid with one. It is decided
// once at startup.
func (c Config) Mode() status.Mode {
	if c.RemoteURL == "" {
		return status.LocalOnly
	}
	return status.Hybrid
}

// Policy parses StreakPolicy.
func (c Config) Policy() (hydration.StreakPolicy, error) {
	return hydration.ParseStreakPolicy(c.StreakPolicy)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

func (c Config) Debounce() time.Duration { return ms(c.DebounceMs) }

func (c Config) Guard() time.Duration { return ms(c.GuardMs) }

func (c Config) RemoteTimeout() time.Duration { return ms(c.RemoteTimeoutMs) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
