package watcher

import (
	"path/filepath"
	"strings"
)

const (
	HistoryFile  = "history.jsonl"
	ProjectsDir  = "projects"
	sessionExt   = ".jsonl"
	ProjectDepth = 2
)

// Kind is the notification category a changed path falls into.
type Kind int

const (
	KindHistory Kind = iota + 1
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindHistory:
		return "history"
	case KindSession:
		return "session"
	}
	return "unknown"
}

// Change is a classified path. SessionID and ProjectID are only set for
// KindSession.
type Change struct {
	Kind      Kind
	Path      string
	SessionID string
	ProjectID string
}

// Classify maps a changed path to its notification category. Any other
// .jsonl file is taken to be projects/<projectId>/<sessionId>.jsonl; the
// IDs come from the file and parent directory names wherever the file
// actually lives. Paths that are not .jsonl do not classify.
func Classify(path string) (Change, bool) {
	base := filepath.Base(path)
	if base == HistoryFile {
		return Change{Kind: KindHistory, Path: path}, true
	}
	if !strings.HasSuffix(base, sessionExt) {
		return Change{}, false
	}
	return Change{
		Kind:      KindSession,
		Path:      path,
		SessionID: strings.TrimSuffix(base, sessionExt),
		ProjectID: filepath.Base(filepath.Dir(path)),
	}, true
}
