package watcher

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// ignoreMatcher filters paths against compiled glob patterns.
type ignoreMatcher struct {
	patterns []glob.Glob
}

func newIgnoreMatcher(patterns []string) (*ignoreMatcher, error) {
	m := &ignoreMatcher{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(pattern))
		if err != nil {
			return nil, err
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

func (m *ignoreMatcher) ignored(path string) bool {
	if m == nil {
		return false
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range m.patterns {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}

// relDepth returns how many path components path sits below root, or -1
// when path is not inside root. root itself has depth 0.
func relDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return -1
	}
	if rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// walkBounded visits dir and everything under it down to maxDepth
// components below root. Directories at maxDepth are visited but not
// descended into. Unreadable entries are skipped and handed to onError,
// except for paths that do not exist.
func walkBounded(root, dir string, maxDepth int, visit func(path string, entry fs.DirEntry, depth int), onError func(error)) {
	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if onError != nil && !errors.Is(err, fs.ErrNotExist) {
				onError(err)
			}
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		depth := relDepth(root, path)
		if depth < 0 || depth > maxDepth {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		visit(path, entry, depth)
		if entry.IsDir() && depth == maxDepth {
			return filepath.SkipDir
		}
		return nil
	})
}
