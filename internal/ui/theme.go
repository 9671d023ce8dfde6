package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/thinkwright/claude-watch/internal/store"
)

// Nostromo MU/TH/UR 6000 color palette
var (
	ColorCyan      = lipgloss.Color("#5a9ab5")
	ColorCyanDim   = lipgloss.Color("#3a6678")
	ColorAccent    = lipgloss.Color("#7fcfdf")
	ColorGreen     = lipgloss.Color("#5aaa7a")
	ColorRed       = lipgloss.Color("#b56a6a")
	ColorYellow    = lipgloss.Color("#b5a05a")
	ColorYellowDim = lipgloss.Color("#5a5030")
	ColorDim       = lipgloss.Color("#3a5565")
	ColorMuted     = lipgloss.Color("#1a2a35")
	ColorBarBg     = lipgloss.Color("#0f1e28") // status/header bar background
	ColorBarText   = lipgloss.Color("#d0dde5")
	ColorWhite     = lipgloss.Color("#8899a5")

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	HistoryStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	SessionStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ProjectStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)
)

// KindStyle returns the label style for an activity kind.
func KindStyle(k store.Kind) lipgloss.Style {
	switch k {
	case store.KindHistory:
		return HistoryStyle
	case store.KindSession:
		return SessionStyle
	case store.KindProject:
		return ProjectStyle
	}
	return DimStyle
}

// ─── Custom Border Rendering ──────────────────────────────────────────
// Renders the feed panel with an inline title in the top border:
//   ┏━╸ FEED ╺━━━━━━━━━━━━━━━━━┓
//   ┃                           ┃
//   ┗━━━━━━━━━━━━━━━━━━━━━━━━━━━┛
// lines are drawn inside the border, each followed by its gutter rune.

// RenderPanel draws a panel of height h (content rows) and total width w.
// gutter may be nil; when set it supplies one character per row drawn just
// inside the right border.
func RenderPanel(title string, lines []string, gutter []string, w, h int) string {
	bc := lipgloss.NewStyle().Foreground(ColorCyanDim)
	tc := lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)

	innerW := w - 2
	if gutter != nil {
		innerW--
	}
	if innerW < 0 {
		innerW = 0
	}

	titleText := " " + title + " "
	fillLen := w - 5 - runewidth.StringWidth(titleText)
	if fillLen < 0 {
		fillLen = 0
	}
	topBorder := bc.Render("┏━╸") + tc.Render(titleText) + bc.Render("╺"+strings.Repeat("━", fillLen)+"┓")
	bottomBorder := bc.Render("┗" + strings.Repeat("━", max(w-2, 0)) + "┛")
	side := bc.Render("┃")

	rows := make([]string, 0, h+2)
	rows = append(rows, topBorder)
	for i := 0; i < h; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		visible := visibleLen(line)
		pad := ""
		if visible < innerW {
			pad = strings.Repeat(" ", innerW-visible)
		}
		g := ""
		if gutter != nil {
			g = " "
			if i < len(gutter) {
				g = gutter[i]
			}
		}
		rows = append(rows, side+line+pad+g+side)
	}
	rows = append(rows, bottomBorder)

	return strings.Join(rows, "\n")
}

// ─── Scrollbar ────────────────────────────────────────────────────────

// RenderScrollbar returns one scrollbar character per visible row.
// height is the visible rows, totalLines the total content lines and
// offset the current scroll position.
func RenderScrollbar(height, totalLines, offset int) []string {
	track := make([]string, max(height, 0))

	if totalLines <= height || height < 1 {
		for i := range track {
			track[i] = " "
		}
		return track
	}

	thumbSize := (height * height) / totalLines
	if thumbSize < 1 {
		thumbSize = 1
	}

	maxOffset := totalLines - height
	if maxOffset < 1 {
		maxOffset = 1
	}
	thumbPos := (offset * (height - thumbSize)) / maxOffset

	thumbChar := lipgloss.NewStyle().Foreground(ColorAccent).Render("┃")
	trackChar := lipgloss.NewStyle().Foreground(ColorMuted).Render("╎")

	for i := range track {
		if i >= thumbPos && i < thumbPos+thumbSize {
			track[i] = thumbChar
		} else {
			track[i] = trackChar
		}
	}

	return track
}

// ─── Sparkline ────────────────────────────────────────────────────────

// Sparkline renders values as a row of bar characters, width runes wide.
func Sparkline(values []float64, width int) string {
	bars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		srcIdx := i * len(values) / width
		if srcIdx >= len(values) {
			srcIdx = len(values) - 1
		}
		idx := int(values[srcIdx] / maxVal * float64(len(bars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(bars) {
			idx = len(bars) - 1
		}
		b.WriteRune(bars[idx])
	}
	return b.String()
}

func visibleLen(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

func stripAnsi(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
