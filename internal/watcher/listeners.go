package watcher

import "sync"

// Subscription identifies a registered listener. The zero value is never
// handed out.
type Subscription uint64

type (
	HistoryFunc func()
	SessionFunc func(sessionID, path string)
	ProjectFunc func(projectID string)
)

// registry is a set of listeners keyed by subscription. Iteration order
// is unspecified.
type registry[F any] struct {
	mu      sync.RWMutex
	entries map[Subscription]F
}

func (r *registry[F]) add(sub Subscription, fn F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[Subscription]F)
	}
	r.entries[sub] = fn
}

func (r *registry[F]) remove(sub Subscription) {
	r.mu.Lock()
	delete(r.entries, sub)
	r.mu.Unlock()
}

func (r *registry[F]) snapshot() []F {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns := make([]F, 0, len(r.entries))
	for _, fn := range r.entries {
		fns = append(fns, fn)
	}
	return fns
}
