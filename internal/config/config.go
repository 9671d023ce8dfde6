package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const appName = "cwatch"

type Config struct {
	ClaudeDir      string   `json:"claude_dir,omitempty"`
	LogLevel       string   `json:"log_level"`       // "debug", "info", "warn", "error"
	FeedSize       int      `json:"feed_size"`       // rows kept in the live feed
	RetainActivity int      `json:"retain_activity"` // rows kept in the activity store
	IgnorePatterns []string `json:"ignore_patterns,omitempty"`
}

// AddIgnorePattern appends a glob pattern. Returns false if already present.
func (c *Config) AddIgnorePattern(pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	for _, p := range c.IgnorePatterns {
		if p == pattern {
			return false
		}
	}
	c.IgnorePatterns = append(c.IgnorePatterns, pattern)
	return true
}

// RemoveIgnorePattern removes a glob pattern. Returns false if not found.
func (c *Config) RemoveIgnorePattern(pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	for i, p := range c.IgnorePatterns {
		if p == pattern {
			c.IgnorePatterns = append(c.IgnorePatterns[:i], c.IgnorePatterns[i+1:]...)
			return true
		}
	}
	return false
}

func DefaultConfig() Config {
	return Config{
		LogLevel:       "info",
		FeedSize:       200,
		RetainActivity: 5000,
	}
}

func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

func configPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func Load() Config {
	cfg := DefaultConfig()
	data, err := os.ReadFile(configPath())
	if err != nil {
		return cfg
	}
	_ = json.Unmarshal(data, &cfg) // ignore errors; fall back to defaults
	if cfg.FeedSize <= 0 {
		cfg.FeedSize = DefaultConfig().FeedSize
	}
	if cfg.RetainActivity <= 0 {
		cfg.RetainActivity = DefaultConfig().RetainActivity
	}
	return cfg
}

func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath(), data, 0o644)
}

// ResolveClaudeDir picks the directory to watch: an explicit flag value
// wins, then the config file, then fallback (normally claude.ClaudeDir).
func ResolveClaudeDir(flagDir string, cfg Config, fallback func() string) string {
	switch {
	case flagDir != "":
		return filepath.Clean(flagDir)
	case cfg.ClaudeDir != "":
		return filepath.Clean(cfg.ClaudeDir)
	default:
		return fallback()
	}
}
