package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all logictree configuration.
// Priority: env vars > settings file > defaults.
type Config struct {
	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`
	MaxDepth  int    `json:"max_depth" yaml:"max_depth"`
	Tracing   bool   `json:"tracing" yaml:"tracing"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		MaxDepth:  1000,
	}
}

func logictreeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".logictree"
	}
	return filepath.Join(home, ".logictree")
}

// settingsPath returns the settings file to read: LOGICTREE_SETTINGS when
// set, otherwise the first settings.{yaml,yml,json} found in dir.
func settingsPath(getenv func(string) string, dir string) string {
	if p := getenv("LOGICTREE_SETTINGS"); p != "" {
		return p
	}
	for _, name := range []string{"settings.yaml", "settings.yml", "settings.json"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func loadConfig() (Config, error) {
	return loadConfigFrom(os.Getenv, logictreeDir())
}

func loadConfigFrom(getenv func(string) string, dir string) (Config, error) {
	cfg := defaultConfig()

	// Layer 2: settings file (ignored if absent).
	if path := settingsPath(getenv, dir); path != "" {
		if err := readSettings(path, &cfg); err != nil {
			return cfg, err
		}
	}

	// Layer 3: env vars override.
	if v := getenv("LOGICTREE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("LOGICTREE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := getenv("LOGICTREE_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("LOGICTREE_MAX_DEPTH: %w", err)
		}
		cfg.MaxDepth = n
	}
	if v := getenv("LOGICTREE_TRACING"); v != "" {
		cfg.Tracing = v == "true" || v == "1"
	}

	if cfg.MaxDepth <= 0 {
		return cfg, fmt.Errorf("max_depth must be positive, got %d", cfg.MaxDepth)
	}
	return cfg, nil
}

// readSettings decodes a YAML or JSON settings file over cfg.
func readSettings(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse settings %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse settings %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported settings file extension: %s", ext)
	}
	return nil
}
