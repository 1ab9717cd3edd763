// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for deskchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.deskchat/config.toml
//   - ~/.deskchat/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/deskchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete deskchat configuration.
type Config struct {
	// Backend is the question-answering service.
	Backend BackendConfig `toml:"backend" json:"backend"`

	// UI holds the page text and terminal theme.
	UI UIConfig `toml:"ui" json:"ui"`

	// Server configures `deskchat serve`.
	Server ServerConfig `toml:"server" json:"server"`

	// Log configures logrus output.
	Log LogConfig `toml:"log" json:"log"`
}

// BackendConfig points the client at the support backend.
type BackendConfig struct {
	// URL is the full /ask endpoint.
	URL string `toml:"url" json:"url"`
	// TimeoutSecs bounds each request, connect through body read.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// UserAgent is sent on every request.
	UserAgent string `toml:"user_agent" json:"user_agent"`
}

// Timeout returns the request timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// UIConfig contains the user-facing text shared by every front end.
type UIConfig struct {
	Title      string `toml:"title" json:"title"`
	Subtitle   string `toml:"subtitle" json:"subtitle"`
	Caption    string `toml:"caption" json:"caption"`
	InputLabel string `toml:"input_label" json:"input_label"`
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme" json:"theme"`
}

// ServerConfig configures the web page front end.
type ServerConfig struct {
	Addr           string  `toml:"addr" json:"addr"`
	CookieName     string  `toml:"cookie_name" json:"cookie_name"`
	SessionTTLMins int     `toml:"session_ttl_mins" json:"session_ttl_mins"`
	RateLimit      float64 `toml:"rate_limit" json:"rate_limit"` // requests per second per client IP
	RateBurst      int     `toml:"rate_burst" json:"rate_burst"`
}

// SessionTTL returns the idle session lifetime.
func (s ServerConfig) SessionTTL() time.Duration {
	return time.Duration(s.SessionTTLMins) * time.Minute
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a logrus level name.
	Level string `toml:"level" json:"level"`
	// Format is "text" or "json".
	Format string `toml:"format" json:"format"`
	// File receives logs in the TUI and REPL. Empty means ~/.deskchat/deskchat.log.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultBackendURL  = "http://localhost:8000/ask"
	DefaultTimeoutSecs = 60
	DefaultAddr        = ":8501"
	DefaultCookieName  = "deskchat_session"

	DefaultSubtitle = "Get instant, authoritative answers to your IT and network questions. " +
		"This chatbot uses your company's official PDF documentation as its knowledge base."
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:         DefaultBackendURL,
			TimeoutSecs: DefaultTimeoutSecs,
			UserAgent:   "deskchat",
		},
		UI: UIConfig{
			Title:      "Internal IT Support Chatbot",
			Subtitle:   DefaultSubtitle,
			Caption:    "Internal use only. For urgent or complex IT issues, contact the IT Service Desk.",
			InputLabel: "Your IT question:",
			Theme:      "auto",
		},
		Server: ServerConfig{
			Addr:           DefaultAddr,
			CookieName:     DefaultCookieName,
			SessionTTLMins: 30,
			RateLimit:      2,
			RateBurst:      5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the deskchat configuration directory path.
// DESKCHAT_HOME relocates it.
func ConfigDir() (string, error) {
	if dir := os.Getenv("DESKCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".deskchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LogPath returns the log file path, honouring log.file.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "deskchat.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// A .env file in the working directory and DESKCHAT_* variables are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	loaded := false
	if tomlPath, err := ConfigPathTOML(); err == nil && fileExists(tomlPath) {
		if err := LoadTOML(cfg, tomlPath); err != nil {
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			cfg = Default()
		} else {
			loaded = true
		}
	}

	if !loaded {
		if jsonPath, err := ConfigPathJSON(); err == nil && fileExists(jsonPath) {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = errors.Join(loadErr, fmt.Errorf("failed to load JSON config: %w", err))
				cfg = Default()
			}
		}
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadFromPath loads configuration from an explicit file. The format is
// chosen by extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, err
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) error {
	loadDotEnv()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// loadDotEnv reads ./.env without overriding variables already set.
func loadDotEnv() {
	if !fileExists(".env") {
		return
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML location, creating the
// config directory if needed.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# deskchat configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validThemes     = map[string]bool{"auto": true, "dark": true, "light": true}
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	validLogFormats = map[string]bool{"text": true, "json": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Backend.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("invalid URL '%s', must be an absolute http(s) URL", c.Backend.URL),
		})
	}
	if c.Backend.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("must be positive, got %d", c.Backend.TimeoutSecs),
		})
	}

	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if c.Server.SessionTTLMins <= 0 {
		errs = append(errs, ValidationError{
			Field:   "server.session_ttl_mins",
			Message: fmt.Sprintf("must be positive, got %d", c.Server.SessionTTLMins),
		})
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit",
			Message: "rate limit and burst must not be negative",
		})
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be text or json", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Backend.URL == "" {
		c.Backend.URL = d.Backend.URL
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = d.Backend.TimeoutSecs
	}
	if c.Backend.UserAgent == "" {
		c.Backend.UserAgent = d.Backend.UserAgent
	}
	if c.UI.Title == "" {
		c.UI.Title = d.UI.Title
	}
	if c.UI.InputLabel == "" {
		c.UI.InputLabel = d.UI.InputLabel
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.CookieName == "" {
		c.Server.CookieName = d.Server.CookieName
	}
	if c.Server.SessionTTLMins == 0 {
		c.Server.SessionTTLMins = d.Server.SessionTTLMins
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DESKCHAT_BACKEND_URL: overrides backend.url
//   - DESKCHAT_TIMEOUT: overrides backend.timeout_secs
//   - DESKCHAT_ADDR: overrides server.addr
//   - DESKCHAT_THEME: overrides ui.theme
//   - DESKCHAT_LOG_LEVEL: overrides log.level
//   - DESKCHAT_LOG_FORMAT: overrides log.format
//   - DESKCHAT_LOG_FILE: overrides log.file
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DESKCHAT_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}

	if v := os.Getenv("DESKCHAT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = secs
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring DESKCHAT_TIMEOUT=%q: not an integer\n", v)
		}
	}

	if v := os.Getenv("DESKCHAT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DESKCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("DESKCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DESKCHAT_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("DESKCHAT_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

// =============================================================================
// UTILITIES
// =============================================================================

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
