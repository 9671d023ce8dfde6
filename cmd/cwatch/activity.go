package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/thinkwright/claude-watch/internal/claude"
	"github.com/thinkwright/claude-watch/internal/store"
	"github.com/thinkwright/claude-watch/internal/watcher"
)

// recorder turns notifier callbacks into activities, stores them and hands
// them to sink. Its methods run on the notifier's dispatch goroutine.
type recorder struct {
	ctx    context.Context
	root   string
	db     *store.Store
	logger *slog.Logger
	sink   func(store.Activity)
	now    func() time.Time
}

func (r *recorder) subscribe(n *watcher.Notifier) {
	n.OnHistoryChange(r.history)
	n.OnSessionChange(r.session)
	n.OnProjectChange(r.project)
}

func (r *recorder) history() {
	path := claude.HistoryPath(r.root)
	a := store.Activity{Kind: store.KindHistory, Path: path}

	entry, err := claude.ReadLastHistory(path)
	if err != nil {
		r.logger.Debug("read history", "path", path, "error", err)
	} else {
		a.Detail = entry.Display
		a.ProjectID = entry.Project
		a.SessionID = entry.SessionID
	}
	r.publish(a)
}

func (r *recorder) session(sessionID, path string) {
	a := store.Activity{
		Kind:      store.KindSession,
		ProjectID: filepath.Base(filepath.Dir(path)),
		SessionID: sessionID,
		Path:      path,
	}

	meta, err := claude.ReadSessionMeta(path)
	if err != nil {
		r.logger.Debug("read session", "path", path, "error", err)
	} else {
		a.Detail = meta.LastPrompt
		if a.Detail == "" {
			a.Detail = meta.FirstPrompt
		}
	}
	r.publish(a)
}

func (r *recorder) project(projectID string) {
	r.publish(store.Activity{
		Kind:      store.KindProject,
		ProjectID: projectID,
		Path:      filepath.Join(claude.ProjectsDir(r.root), projectID),
	})
}

func (r *recorder) publish(a store.Activity) {
	a.At = r.now()
	if r.db != nil {
		id, err := r.db.Record(r.ctx, a)
		if err != nil {
			r.logger.Warn("record activity", "kind", a.Kind, "error", err)
		}
		a.ID = id
	}
	r.logger.Debug("activity", "kind", a.Kind, "project", a.ProjectID, "session", a.SessionID)
	if r.sink != nil {
		r.sink(a)
	}
}
