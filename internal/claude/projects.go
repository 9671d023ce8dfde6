package claude

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Project struct {
	ID           string // folder name under projects/, e.g. "-Users-jane-dev-app"
	Name         string // last component of the decoded path
	Path         string // decoded original filesystem path
	DataDir      string // full path to the project data dir
	SessionCount int
	LastModified int64 // unix millis of the newest session file
}

// ClaudeDir is the default data directory, honouring CLAUDE_CONFIG_DIR.
func ClaudeDir() string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

func ProjectsDir(root string) string {
	return filepath.Join(root, "projects")
}

func HistoryPath(root string) string {
	return filepath.Join(root, "history.jsonl")
}

// DecodeProjectPath converts a folder name like "-Users-jane-Dev-myproject"
// back to "/Users/jane/Dev/myproject". Hyphens inside the original path are
// not recoverable.
func DecodeProjectPath(encoded string) string {
	if len(encoded) == 0 {
		return ""
	}
	if encoded[0] != '-' {
		return encoded
	}
	return "/" + strings.ReplaceAll(encoded[1:], "-", "/")
}

// ProjectName is the display name for a project folder.
func ProjectName(encoded string) string {
	decoded := DecodeProjectPath(encoded)
	if decoded == "" {
		return ""
	}
	return filepath.Base(decoded)
}

// countJSONLInDir counts .jsonl files in a directory and returns the latest mtime.
func countJSONLInDir(dir string) (count int, lastMod int64) {
	entries, _ := os.ReadDir(dir)
	for _, f := range entries {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".jsonl") {
			count++
			if info, err := f.Info(); err == nil {
				mt := info.ModTime().UnixMilli()
				if mt > lastMod {
					lastMod = mt
				}
			}
		}
	}
	return
}

// DiscoverProjects lists project folders under root/projects that hold at
// least one session file, newest first. A missing projects dir is not an
// error.
func DiscoverProjects(root string) ([]Project, error) {
	dir := ProjectsDir(root)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var projects []Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dataDir := filepath.Join(dir, e.Name())
		count, lastMod := countJSONLInDir(dataDir)
		if count == 0 {
			continue
		}
		projects = append(projects, Project{
			ID:           e.Name(),
			Name:         ProjectName(e.Name()),
			Path:         DecodeProjectPath(e.Name()),
			DataDir:      dataDir,
			SessionCount: count,
			LastModified: lastMod,
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastModified > projects[j].LastModified
	})
	return projects, nil
}
