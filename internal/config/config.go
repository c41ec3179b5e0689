// Package config loads agent-tutor settings from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Store selects the key-value backend.
type Store struct {
	Driver     string `toml:"driver"`
	SQLitePath string `toml:"sqlite_path"`
	RedisURL   string `toml:"redis_url"`
	KeyPrefix  string `toml:"key_prefix"`
}

// Gemini contains the generative AI connection settings.
type Gemini struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	AnalysisModel  string `toml:"analysis_model"`
	TTSModel       string `toml:"tts_model"`
	Voice          string `toml:"voice"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	WebSearch      bool   `toml:"web_search"`
}

// Server contains HTTP API settings.
type Server struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
	MaxUploadMB    int      `toml:"max_upload_mb"`
}

// Log contains logger settings.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full application configuration.
type Config struct {
	Store  Store  `toml:"store"`
	Gemini Gemini `toml:"gemini"`
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	if env := os.Getenv("AGENT_TUTOR_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "agent-tutor", "config.toml")
}

// Load reads path (a missing file yields defaults), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AGENT_TUTOR_DB"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("AGENT_TUTOR_STORE"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("AGENT_TUTOR_REDIS_URL"); v != "" {
		c.Store.RedisURL = v
	}
	if v := firstEnv("GEMINI_API_KEY", "API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("AGENT_TUTOR_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv("AGENT_TUTOR_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(os.Getenv(k))
		// Bundlers substitute missing keys with these literals.
		if v != "" && v != "undefined" && v != "null" {
			return v
		}
	}
	return ""
}
