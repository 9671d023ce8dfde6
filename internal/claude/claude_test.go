package claude

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestJSONL creates a JSONL file under dir and returns its path.
func writeTestJSONL(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	var content string
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClaudeDir_Env(t *testing.T) {
	t.Setenv("CLAUDE_CONFIG_DIR", "/tmp/custom-claude")
	if got := ClaudeDir(); got != "/tmp/custom-claude" {
		t.Errorf("ClaudeDir() = %q", got)
	}
}

func TestPaths(t *testing.T) {
	root := filepath.Join("/home", "jane", ".claude")
	if got := ProjectsDir(root); got != filepath.Join(root, "projects") {
		t.Errorf("ProjectsDir = %q", got)
	}
	if got := HistoryPath(root); got != filepath.Join(root, "history.jsonl") {
		t.Errorf("HistoryPath = %q", got)
	}
}

func TestDecodeProjectPath(t *testing.T) {
	tests := map[string]string{
		"-Users-jane-Dev-myproject": "/Users/jane/Dev/myproject",
		"-tmp":                      "/tmp",
		"proj-123":                  "proj-123",
		"":                          "",
	}
	for in, want := range tests {
		if got := DecodeProjectPath(in); got != want {
			t.Errorf("DecodeProjectPath(%q) = %q, want %q", in, got, want)
		}
	}
	if got := ProjectName("-Users-jane-Dev-myproject"); got != "myproject" {
		t.Errorf("ProjectName = %q, want myproject", got)
	}
}

func TestDiscoverProjects(t *testing.T) {
	root := t.TempDir()
	projects := ProjectsDir(root)
	writeTestJSONL(t, filepath.Join(projects, "-Users-jane-app"), "a.jsonl", `{}`)
	writeTestJSONL(t, filepath.Join(projects, "-Users-jane-app"), "b.jsonl", `{}`)
	writeTestJSONL(t, filepath.Join(projects, "-Users-jane-empty"), "notes.txt", `x`)

	got, err := DiscoverProjects(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 project, got %d", len(got))
	}
	p := got[0]
	if p.ID != "-Users-jane-app" || p.Name != "app" || p.Path != "/Users/jane/app" {
		t.Errorf("project = %+v", p)
	}
	if p.SessionCount != 2 {
		t.Errorf("session count = %d, want 2", p.SessionCount)
	}
	if p.LastModified == 0 {
		t.Error("last modified not set")
	}
}

func TestDiscoverProjects_MissingDir(t *testing.T) {
	got, err := DiscoverProjects(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing projects dir should not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no projects, got %d", len(got))
	}
}

func TestReadSessionMeta(t *testing.T) {
	path := writeTestJSONL(t, t.TempDir(), "sess.jsonl",
		`{"type":"user","timestamp":"2025-01-01T00:00:00Z","gitBranch":"main","message":{"role":"user","content":"fix the deploy bug"}}`,
		`{"type":"assistant","timestamp":"2025-01-01T00:00:01Z","message":{"role":"assistant","model":"claude-sonnet-4","content":[{"type":"text","text":"on it"}]}}`,
		`not json`,
		`{"type":"user","timestamp":"2025-01-01T00:00:03Z","message":{"role":"user","content":[{"type":"text","text":"now run the tests"}]}}`,
	)

	meta, err := ReadSessionMeta(path)
	if err != nil {
		t.Fatal(err)
	}
	if meta.FirstPrompt != "fix the deploy bug" {
		t.Errorf("first prompt = %q", meta.FirstPrompt)
	}
	if meta.LastPrompt != "now run the tests" {
		t.Errorf("last prompt = %q", meta.LastPrompt)
	}
	if meta.GitBranch != "main" {
		t.Errorf("git branch = %q", meta.GitBranch)
	}
	if meta.Model != "claude-sonnet-4" {
		t.Errorf("model = %q", meta.Model)
	}
	if meta.Created != "2025-01-01T00:00:00Z" || meta.Modified != "2025-01-01T00:00:03Z" {
		t.Errorf("created/modified = %q/%q", meta.Created, meta.Modified)
	}
	if meta.MessageCount != 4 {
		t.Errorf("message count = %d, want 4", meta.MessageCount)
	}
}

func TestReadSessionMeta_TruncatesPrompt(t *testing.T) {
	long := strings.Repeat("é", 300)
	path := writeTestJSONL(t, t.TempDir(), "sess.jsonl",
		`{"type":"user","message":{"role":"user","content":"`+long+`"}}`,
	)
	meta, err := ReadSessionMeta(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := len([]rune(meta.FirstPrompt)); n != 120 {
		t.Errorf("prompt runes = %d, want 120", n)
	}
}

func TestReadSessionMeta_Missing(t *testing.T) {
	if _, err := ReadSessionMeta(filepath.Join(t.TempDir(), "gone.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadLastHistory(t *testing.T) {
	path := writeTestJSONL(t, t.TempDir(), "history.jsonl",
		`{"display":"first","project":"/Users/jane/app","timestamp":1735689600000}`,
		`{"display":"second","project":"/Users/jane/app","timestamp":1735689700000,"sessionId":"abc"}`,
		`{"display":"trunc`,
	)

	entry, err := ReadLastHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Display != "second" {
		t.Errorf("display = %q, want second", entry.Display)
	}
	if entry.Project != "/Users/jane/app" || entry.SessionID != "abc" || entry.Timestamp != 1735689700000 {
		t.Errorf("entry = %+v", entry)
	}
}

func TestReadLastHistory_LargeFile(t *testing.T) {
	lines := make([]string, 0, 3000)
	for i := 0; i < 3000; i++ {
		lines = append(lines, `{"display":"`+strings.Repeat("x", 40)+`","project":"/p","timestamp":1}`)
	}
	lines = append(lines, `{"display":"newest","project":"/p","timestamp":2}`)
	path := writeTestJSONL(t, t.TempDir(), "history.jsonl", lines...)

	entry, err := ReadLastHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Display != "newest" {
		t.Errorf("display = %q, want newest", entry.Display)
	}
}

func TestReadLastHistory_Empty(t *testing.T) {
	path := writeTestJSONL(t, t.TempDir(), "history.jsonl")
	if _, err := ReadLastHistory(path); !errors.Is(err, ErrNoHistory) {
		t.Errorf("err = %v, want ErrNoHistory", err)
	}
}
