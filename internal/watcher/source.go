package watcher

import (
	"time"
)

// Op is the kind of change a Source reports for a path.
type Op int

const (
	OpChanged Op = iota + 1
	OpAdded
	OpRemoved
)

func (op Op) String() string {
	switch op {
	case OpChanged:
		return "changed"
	case OpAdded:
		return "added"
	case OpRemoved:
		return "removed"
	}
	return "unknown"
}

// Event is a raw filesystem change reported by a Source.
type Event struct {
	Path string
	Op   Op
}

// Source delivers raw filesystem events for a set of watch targets.
// Both channels are closed once the source shuts down.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// SourceConfig describes what a Source watches and how.
type SourceConfig struct {
	// Paths are the watch targets. A target may be a file or a directory
	// and does not have to exist yet.
	Paths []string

	// Depth bounds how far below a directory target files are reported.
	// With Depth 2, dir/a/b.jsonl is reported and dir/a/b/c.jsonl is not.
	Depth int

	UsePolling   bool
	PollInterval time.Duration

	// IgnoreInitial suppresses OpAdded events for files that already
	// exist when the source starts.
	IgnoreInitial bool

	// Ignore holds glob patterns matched against the full path and the
	// base name. Matching files produce no events.
	Ignore []string
}

// SourceFactory builds a Source. The Notifier calls it on every Start.
type SourceFactory func(SourceConfig) (Source, error)

// NewSource returns a polling source when cfg.UsePolling is set and an
// fsnotify-backed source otherwise.
func NewSource(cfg SourceConfig) (Source, error) {
	if cfg.UsePolling {
		return newPollSource(cfg)
	}
	return newNativeSource(cfg)
}
