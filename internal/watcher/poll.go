package watcher

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"
)

const defaultPollInterval = 100 * time.Millisecond

type fileStamp struct {
	modTime time.Time
	size    int64
}

// pollSource diffs (mtime, size) snapshots of the targets on a ticker.
// It is the fallback for filesystems where native events are unreliable,
// such as network mounts and some container volumes.
type pollSource struct {
	cfg      SourceConfig
	ignore   *ignoreMatcher
	interval time.Duration
	last     map[string]fileStamp

	events    chan Event
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once
}

func newPollSource(cfg SourceConfig) (Source, error) {
	ignore, err := newIgnoreMatcher(cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("compile ignore patterns: %w", err)
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	s := &pollSource{
		cfg:      cfg,
		ignore:   ignore,
		interval: interval,
		last:     make(map[string]fileStamp),
		events:   make(chan Event, 64),
		errors:   make(chan error, 16),
		done:     make(chan struct{}),
	}
	if cfg.IgnoreInitial {
		s.last = s.scan()
	}

	go s.run()
	return s, nil
}

func (s *pollSource) Events() <-chan Event { return s.events }
func (s *pollSource) Errors() <-chan error { return s.errors }

func (s *pollSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

func (s *pollSource) run() {
	defer close(s.events)
	defer close(s.errors)

	if !s.cfg.IgnoreInitial {
		s.poll()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *pollSource) poll() {
	next := s.scan()
	for path, stamp := range next {
		prev, ok := s.last[path]
		switch {
		case !ok:
			if !s.emit(path, OpAdded) {
				return
			}
		case !prev.modTime.Equal(stamp.modTime) || prev.size != stamp.size:
			if !s.emit(path, OpChanged) {
				return
			}
		}
	}
	for path := range s.last {
		if _, ok := next[path]; !ok {
			if !s.emit(path, OpRemoved) {
				return
			}
		}
	}
	s.last = next
}

func (s *pollSource) scan() map[string]fileStamp {
	stamps := make(map[string]fileStamp)
	for _, root := range s.cfg.Paths {
		root = filepath.Clean(root)
		walkBounded(root, root, s.cfg.Depth, func(path string, entry fs.DirEntry, depth int) {
			if entry.IsDir() || s.ignore.ignored(path) {
				return
			}
			info, err := entry.Info()
			if err != nil {
				return
			}
			stamps[path] = fileStamp{modTime: info.ModTime(), size: info.Size()}
		}, s.report)
	}
	return stamps
}

func (s *pollSource) emit(path string, op Op) bool {
	select {
	case s.events <- Event{Path: path, Op: op}:
		return true
	case <-s.done:
		return false
	}
}

func (s *pollSource) report(err error) {
	select {
	case s.errors <- err:
	default:
	}
}
