// Package config provides configuration loading for the service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the service configuration. Values come from an optional JSON
// file overridden by environment variables; all fields are optional except
// DatabaseURL for commands that touch storage.
type Config struct {
	// APIKey is the Gemini API key. When empty the grader degrades to its
	// sentinel results and voice analysis runs on the heuristic.
	APIKey string `json:"api_key,omitempty"`

	// DatabaseURL is the PostgreSQL connection URL.
	DatabaseURL string `json:"database_url,omitempty"`

	// Port is the HTTP listen port for serve.
	Port string `json:"port,omitempty"`

	// JWTSecret verifies bearer tokens on the answer routes.
	JWTSecret string `json:"jwt_secret,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is json or console.
	LogFormat string `json:"log_format,omitempty"`
}

// LoadFile loads configuration from a JSON file.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns the configuration carried by environment variables.
func FromEnv() Config {
	return Config{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        os.Getenv("PORT"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
	}
}

// Merge returns a copy of c with empty fields filled from fallback.
// Environment values are merged over file values, so the caller passes the
// file config as the fallback.
func (c Config) Merge(fallback Config) Config {
	result := c
	if result.APIKey == "" {
		result.APIKey = fallback.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = fallback.DatabaseURL
	}
	if result.Port == "" {
		result.Port = fallback.Port
	}
	if result.JWTSecret == "" {
		result.JWTSecret = fallback.JWTSecret
	}
	if result.LogLevel == "" {
		result.LogLevel = fallback.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = fallback.LogFormat
	}
	return result
}

// Load builds the effective configuration: the optional JSON file at path
// (skipped when path is empty), overridden by environment variables.
func Load(path string) (Config, error) {
	fileCfg := Config{}
	if path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		fileCfg = *loaded
	}
	return FromEnv().Merge(fileCfg), nil
}
