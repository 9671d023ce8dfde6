// Package watcher turns filesystem changes under a Claude data directory
// into debounced history, session and project notifications.
//
// A changed file is history only when its base name is exactly
// history.jsonl; myhistory.jsonl and the like are treated as session files.
package watcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DebounceDelay is the quiet period a path needs before it is dispatched.
	DebounceDelay = 20 * time.Millisecond

	// PollInterval applies only when polling is selected.
	PollInterval = 100 * time.Millisecond

	// PollingEnv set to "1" selects the polling source. Read on every Start.
	PollingEnv = "CLAUDE_RUN_USE_POLLING"
)

var ErrNotInitialized = errors.New("watcher not initialized")

// Options configures a Notifier. The zero value is usable.
type Options struct {
	Logger *slog.Logger

	// NewSource builds the underlying watcher. Defaults to NewSource.
	NewSource SourceFactory

	// Ignore is passed through to the source as glob patterns.
	Ignore []string

	// Getenv looks up PollingEnv. Defaults to os.Getenv.
	Getenv func(string) string
}

// Notifier watches <root>/history.jsonl and <root>/projects, debounces
// raw events per path and fans each quiet path out to the listeners of
// its category.
//
// Raw events, debounce timers and listener calls all run on a single
// goroutine, one at a time. Listeners must not call Stop.
type Notifier struct {
	logger    *slog.Logger
	newSource SourceFactory
	getenv    func(string) string
	ignore    []string
	delay     time.Duration

	mu     sync.Mutex
	root   string
	active *loop

	lastID   atomic.Uint64
	history  registry[HistoryFunc]
	sessions registry[SessionFunc]
	projects registry[ProjectFunc]
}

func New(opts Options) *Notifier {
	n := &Notifier{
		logger:    opts.Logger,
		newSource: opts.NewSource,
		getenv:    opts.Getenv,
		ignore:    opts.Ignore,
		delay:     DebounceDelay,
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.newSource == nil {
		n.newSource = NewSource
	}
	if n.getenv == nil {
		n.getenv = os.Getenv
	}
	return n
}

// Initialize records the directory to watch. It must be called before
// Start; calling it while running has no effect until the next Start.
func (n *Notifier) Initialize(dir string) {
	n.mu.Lock()
	n.root = dir
	n.mu.Unlock()
}

// Root returns the directory passed to Initialize.
func (n *Notifier) Root() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.root
}

func (n *Notifier) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active != nil
}

// Start begins watching. It is a no-op when already running.
func (n *Notifier) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.active != nil {
		return nil
	}
	if n.root == "" {
		return ErrNotInitialized
	}

	cfg := SourceConfig{
		Paths: []string{
			filepath.Join(n.root, HistoryFile),
			filepath.Join(n.root, ProjectsDir),
		},
		Depth:         ProjectDepth,
		UsePolling:    n.getenv(PollingEnv) == "1",
		IgnoreInitial: true,
		Ignore:        n.ignore,
	}
	if cfg.UsePolling {
		cfg.PollInterval = PollInterval
	}

	source, err := n.newSource(cfg)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	l := &loop{
		source:  source,
		delay:   n.delay,
		pending: make(map[string]*pendingTimer),
		fired:   make(chan firing),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	n.active = l
	go n.run(l)

	n.logger.Debug("watcher started", "root", n.root, "polling", cfg.UsePolling)
	return nil
}

// Stop closes the source and drops every pending notification. It is a
// no-op when not running. Listeners stay registered. No listener runs
// after Stop returns.
func (n *Notifier) Stop() error {
	n.mu.Lock()
	l := n.active
	n.active = nil
	n.mu.Unlock()

	if l == nil {
		return nil
	}

	close(l.stop)
	<-l.done

	if err := l.source.Close(); err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}
	n.logger.Debug("watcher stopped")
	return nil
}

// OnHistoryChange registers fn for history.jsonl changes. Every call gets
// its own Subscription, so registering the same fn twice makes it run twice
// per change until both handles are removed. A nil fn is ignored and
// yields the zero Subscription.
func (n *Notifier) OnHistoryChange(fn HistoryFunc) Subscription {
	if fn == nil {
		return 0
	}
	sub := n.nextSubscription()
	n.history.add(sub, fn)
	return sub
}

func (n *Notifier) OffHistoryChange(sub Subscription) {
	n.history.remove(sub)
}

func (n *Notifier) OnSessionChange(fn SessionFunc) Subscription {
	if fn == nil {
		return 0
	}
	sub := n.nextSubscription()
	n.sessions.add(sub, fn)
	return sub
}

func (n *Notifier) OffSessionChange(sub Subscription) {
	n.sessions.remove(sub)
}

func (n *Notifier) OnProjectChange(fn ProjectFunc) Subscription {
	if fn == nil {
		return 0
	}
	sub := n.nextSubscription()
	n.projects.add(sub, fn)
	return sub
}

func (n *Notifier) OffProjectChange(sub Subscription) {
	n.projects.remove(sub)
}

func (n *Notifier) nextSubscription() Subscription {
	return Subscription(n.lastID.Add(1))
}

func (n *Notifier) run(l *loop) {
	defer close(l.done)

	events := l.source.Events()
	errs := l.source.Errors()

	for {
		select {
		case <-l.stop:
			l.cancelAll()
			return
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op == OpChanged || event.Op == OpAdded {
				l.schedule(event.Path)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			n.logger.Warn("watcher error", "error", err)
		case f := <-l.fired:
			if l.stopping() {
				l.cancelAll()
				return
			}
			if l.take(f) {
				n.dispatch(f.path)
			}
		}
	}
}

func (n *Notifier) dispatch(path string) {
	change, ok := Classify(path)
	if !ok {
		return
	}

	switch change.Kind {
	case KindHistory:
		for _, fn := range n.history.snapshot() {
			fn()
		}
	case KindSession:
		for _, fn := range n.sessions.snapshot() {
			fn(change.SessionID, change.Path)
		}
		for _, fn := range n.projects.snapshot() {
			fn(change.ProjectID)
		}
	}
}

type pendingTimer struct {
	seq   uint64
	timer *time.Timer
}

type firing struct {
	path string
	seq  uint64
}

// loop is the state of one Start..Stop cycle. pending is only touched by
// the run goroutine.
type loop struct {
	source  Source
	delay   time.Duration
	pending map[string]*pendingTimer
	seq     uint64

	fired chan firing
	stop  chan struct{}
	done  chan struct{}
}

// schedule (re)arms the timer for path. Each timer carries a sequence
// number, so one that fires after being replaced is discarded by take.
func (l *loop) schedule(path string) {
	if p, ok := l.pending[path]; ok {
		p.timer.Stop()
	}
	l.seq++
	seq := l.seq
	l.pending[path] = &pendingTimer{
		seq: seq,
		timer: time.AfterFunc(l.delay, func() {
			select {
			case l.fired <- firing{path: path, seq: seq}:
			case <-l.stop:
			}
		}),
	}
}

func (l *loop) take(f firing) bool {
	p, ok := l.pending[f.path]
	if !ok || p.seq != f.seq {
		return false
	}
	delete(l.pending, f.path)
	return true
}

func (l *loop) stopping() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

func (l *loop) cancelAll() {
	for path, p := range l.pending {
		p.timer.Stop()
		delete(l.pending, path)
	}
}
