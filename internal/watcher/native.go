package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// nativeSource is the fsnotify-backed Source. fsnotify is not recursive,
// so every directory inside the depth bound gets its own watch, and each
// target's parent is watched so targets created later are picked up.
type nativeSource struct {
	cfg     SourceConfig
	ignore  *ignoreMatcher
	fsw     *fsnotify.Watcher
	targets []string
	watched map[string]struct{}

	events    chan Event
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once
}

func newNativeSource(cfg SourceConfig) (Source, error) {
	ignore, err := newIgnoreMatcher(cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("compile ignore patterns: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	s := &nativeSource{
		cfg:     cfg,
		ignore:  ignore,
		fsw:     fsw,
		watched: make(map[string]struct{}),
		events:  make(chan Event, 64),
		errors:  make(chan error, 16),
		done:    make(chan struct{}),
	}

	for _, path := range cfg.Paths {
		path = filepath.Clean(path)
		s.targets = append(s.targets, path)
		s.watch(filepath.Dir(path))
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			s.watchTree(path, path, false)
		}
	}

	go s.run()
	return s, nil
}

func (s *nativeSource) Events() <-chan Event { return s.events }
func (s *nativeSource) Errors() <-chan error { return s.errors }

func (s *nativeSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.fsw.Close()
	})
	return err
}

func (s *nativeSource) run() {
	defer close(s.events)
	defer close(s.errors)

	if !s.cfg.IgnoreInitial {
		for _, target := range s.targets {
			s.watchTree(target, target, true)
		}
	}

	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			s.handle(event)
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			s.report(err)
		}
	}
}

func (s *nativeSource) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		// fsnotify drops the watch of a deleted directory on its own
		delete(s.watched, path)
	}

	for _, root := range s.targets {
		depth := relDepth(root, path)
		if depth < 0 || depth > s.cfg.Depth {
			continue
		}

		switch {
		case event.Has(fsnotify.Create):
			info, err := os.Stat(path)
			if err != nil {
				return
			}
			if info.IsDir() {
				if depth < s.cfg.Depth {
					s.watchTree(root, path, true)
				}
				return
			}
			s.emit(path, OpAdded)
		case event.Has(fsnotify.Write):
			s.emit(path, OpChanged)
		case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
			s.emit(path, OpRemoved)
		}
		return
	}
}

// watchTree adds watches for every directory under dir that can still
// hold files within the depth bound of root. With report set, files found
// on the way are emitted as added.
func (s *nativeSource) watchTree(root, dir string, report bool) {
	walkBounded(root, dir, s.cfg.Depth, func(path string, entry fs.DirEntry, depth int) {
		if entry.IsDir() {
			if depth < s.cfg.Depth {
				s.watch(path)
			}
			return
		}
		if report {
			s.emit(path, OpAdded)
		}
	}, s.report)
}

func (s *nativeSource) watch(dir string) {
	if _, ok := s.watched[dir]; ok {
		return
	}
	if err := s.fsw.Add(dir); err != nil {
		s.report(fmt.Errorf("watch %s: %w", dir, err))
		return
	}
	s.watched[dir] = struct{}{}
}

func (s *nativeSource) emit(path string, op Op) {
	if s.ignore.ignored(path) {
		return
	}
	select {
	case s.events <- Event{Path: path, Op: op}:
	case <-s.done:
	}
}

func (s *nativeSource) report(err error) {
	select {
	case s.errors <- err:
	default:
	}
}
