package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q, want info", cfg.LogLevel)
	}
	if cfg.FeedSize != 200 {
		t.Errorf("feed_size = %d, want 200", cfg.FeedSize)
	}
	if cfg.RetainActivity != 5000 {
		t.Errorf("retain_activity = %d, want 5000", cfg.RetainActivity)
	}
	if cfg.ClaudeDir != "" || len(cfg.IgnorePatterns) != 0 {
		t.Errorf("unexpected non-empty defaults: %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	// Use a temp dir as XDG_CONFIG_HOME to avoid touching real config
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := Config{
		ClaudeDir:      "/srv/claude",
		LogLevel:       "debug",
		FeedSize:       50,
		RetainActivity: 100,
		IgnorePatterns: []string{"agent-*.jsonl"},
	}

	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "cwatch", "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	loaded := Load()
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("loaded %+v, want %+v", loaded, cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// No config file exists, so defaults come back
	cfg := Load()
	expected := DefaultConfig()
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf("got %+v, want defaults %+v", cfg, expected)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "cwatch")
	os.MkdirAll(configDir, 0o755)
	os.WriteFile(filepath.Join(configDir, "config.json"), []byte("not json"), 0o644)

	// Should return defaults without error
	cfg := Load()
	expected := DefaultConfig()
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf("malformed json: got %+v, want defaults", cfg)
	}
}

func TestLoad_PartialJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "cwatch")
	os.MkdirAll(configDir, 0o755)
	os.WriteFile(filepath.Join(configDir, "config.json"), []byte(`{"log_level": "warn", "feed_size": 0}`), 0o644)

	cfg := Load()
	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %q, want warn", cfg.LogLevel)
	}
	// Zero sizes fall back to defaults
	if cfg.FeedSize != 200 {
		t.Errorf("feed_size = %d, want 200 (default restored)", cfg.FeedSize)
	}
	if cfg.RetainActivity != 5000 {
		t.Errorf("retain_activity = %d, want 5000 (default preserved)", cfg.RetainActivity)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := ConfigDir()
	want := filepath.Join(dir, "cwatch")
	if got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	appDir := filepath.Join(dir, "cwatch")
	if _, err := os.Stat(appDir); err == nil {
		t.Fatal("cwatch dir shouldn't exist yet")
	}

	Save(DefaultConfig())

	if _, err := os.Stat(appDir); err != nil {
		t.Errorf("Save should create directory: %v", err)
	}
}

func TestSave_JSONFormat(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	Save(DefaultConfig())

	data, _ := os.ReadFile(filepath.Join(dir, "cwatch", "config.json"))

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("saved config is not valid JSON: %v", err)
	}
	if _, ok := parsed["claude_dir"]; ok {
		t.Error("empty claude_dir should be omitted")
	}
}

func TestIgnorePatterns(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.AddIgnorePattern("agent-*.jsonl") {
		t.Fatal("first add should succeed")
	}
	if cfg.AddIgnorePattern(" agent-*.jsonl ") {
		t.Error("duplicate add should be rejected")
	}
	if cfg.AddIgnorePattern("  ") {
		t.Error("blank pattern should be rejected")
	}
	if !cfg.RemoveIgnorePattern("agent-*.jsonl") {
		t.Error("remove should succeed")
	}
	if cfg.RemoveIgnorePattern("agent-*.jsonl") {
		t.Error("second remove should fail")
	}
	if len(cfg.IgnorePatterns) != 0 {
		t.Errorf("patterns = %v, want empty", cfg.IgnorePatterns)
	}
}

func TestResolveClaudeDir(t *testing.T) {
	fallback := func() string { return "/home/jane/.claude" }

	if got := ResolveClaudeDir("/flag/dir/", Config{ClaudeDir: "/cfg"}, fallback); got != "/flag/dir" {
		t.Errorf("flag: got %q", got)
	}
	if got := ResolveClaudeDir("", Config{ClaudeDir: "/cfg"}, fallback); got != "/cfg" {
		t.Errorf("config: got %q", got)
	}
	if got := ResolveClaudeDir("", Config{}, fallback); got != "/home/jane/.claude" {
		t.Errorf("fallback: got %q", got)
	}
}
