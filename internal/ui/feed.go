package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/thinkwright/claude-watch/internal/claude"
	"github.com/thinkwright/claude-watch/internal/store"
)

// Column widths of a feed row, in terminal cells.
const (
	timeWidth    = 8
	kindWidth    = 7
	projectWidth = 20
	sessionWidth = 8
)

// Feed keeps the newest activities, newest first, capped at size.
type Feed struct {
	items []store.Activity
	size  int
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 1
	}
	return &Feed{size: size}
}

// Push adds a to the top of the feed, dropping the oldest row when full.
func (f *Feed) Push(a store.Activity) {
	f.items = append(f.items, store.Activity{})
	copy(f.items[1:], f.items)
	f.items[0] = a
	if len(f.items) > f.size {
		f.items = f.items[:f.size]
	}
}

func (f *Feed) Len() int { return len(f.items) }

func (f *Feed) Items() []store.Activity { return f.items }

func (f *Feed) Clear() { f.items = f.items[:0] }

// row holds the display columns of an activity.
type row struct {
	at      string
	kind    string
	project string
	session string
	detail  string
}

func newRow(a store.Activity) row {
	r := row{
		at:      a.At.Format("15:04:05"),
		kind:    string(a.Kind),
		project: claude.ProjectName(a.ProjectID),
		session: a.SessionID,
		detail:  a.Detail,
	}
	if r.project == "" {
		r.project = "-"
	}
	if r.session == "" {
		r.session = "-"
	}
	if r.detail == "" {
		r.detail = a.Path
	}
	r.detail = strings.Join(strings.Fields(r.detail), " ")
	return r
}

func fit(s string, w int) string {
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}

// FormatLine renders a as a single unstyled row. A width of zero or less
// leaves the detail column untruncated.
func FormatLine(a store.Activity, width int) string {
	r := newRow(a)
	line := fit(r.at, timeWidth) + " " +
		fit(r.kind, kindWidth) + " " +
		fit(r.project, projectWidth) + " " +
		fit(r.session, sessionWidth) + " " +
		r.detail
	if width > 0 {
		line = runewidth.Truncate(line, width, "…")
	}
	return line
}

// renderLine is FormatLine with the feed palette applied.
func renderLine(a store.Activity, width int) string {
	r := newRow(a)
	fixed := timeWidth + kindWidth + projectWidth + sessionWidth + 4
	detailW := width - fixed
	if detailW < 0 {
		return runewidth.Truncate(FormatLine(a, 0), max(width, 0), "…")
	}
	return DimStyle.Render(fit(r.at, timeWidth)) + " " +
		KindStyle(a.Kind).Render(fit(strings.ToUpper(r.kind), kindWidth)) + " " +
		NormalStyle.Render(fit(r.project, projectWidth)) + " " +
		DimStyle.Render(fit(r.session, sessionWidth)) + " " +
		NormalStyle.Render(runewidth.Truncate(r.detail, detailW, "…"))
}
