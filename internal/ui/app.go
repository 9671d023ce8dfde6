package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/thinkwright/claude-watch/internal/store"
)

// rateBuckets is how many one-second buckets the header sparkline covers.
const rateBuckets = 60

type tickMsg time.Time

type activityMsg store.Activity

// feedClosedMsg reports that the update channel was closed.
type feedClosedMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForActivity blocks on ch and hands the next activity to Update.
func waitForActivity(ch <-chan store.Activity) tea.Cmd {
	return func() tea.Msg {
		a, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return activityMsg(a)
	}
}

type keyMap struct {
	Quit   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Follow key.Binding
	Clear  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Follow: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow")),
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Top, k.Bottom, k.Follow, k.Clear, k.Quit}
}

// Options configures the live feed.
type Options struct {
	Root     string
	Polling  bool
	FeedSize int

	// Backlog seeds the feed, newest first.
	Backlog []store.Activity

	// Totals seeds the per-kind counters.
	Totals map[store.Kind]int

	// Updates delivers new activities. Closing it marks the feed closed.
	Updates <-chan store.Activity
}

type Model struct {
	feed     *Feed
	viewport viewport.Model
	keys     keyMap
	updates  <-chan store.Activity
	root     string
	polling  bool
	counts   map[store.Kind]int
	rate     []float64
	follow   bool
	closed   bool
	width    int
	height   int
	ready    bool
	frame    int
}

func NewModel(opts Options) Model {
	m := Model{
		feed:    NewFeed(opts.FeedSize),
		keys:    defaultKeyMap(),
		updates: opts.Updates,
		root:    opts.Root,
		polling: opts.Polling,
		counts:  make(map[store.Kind]int),
		rate:    make([]float64, rateBuckets),
		follow:  true,
	}
	for k, n := range opts.Totals {
		m.counts[k] = n
	}
	for i := len(opts.Backlog) - 1; i >= 0; i-- {
		m.feed.Push(opts.Backlog[i])
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.updates == nil {
		return tickCmd()
	}
	return tea.Batch(tickCmd(), waitForActivity(m.updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vw, vh := m.viewportSize()
		if !m.ready {
			m.viewport = viewport.New(vw, vh)
			m.ready = true
		} else {
			m.viewport.Width = vw
			m.viewport.Height = vh
		}
		m.refresh()
		return m, nil

	case tickMsg:
		m.frame++
		copy(m.rate, m.rate[1:])
		m.rate[len(m.rate)-1] = 0
		return m, tickCmd()

	case activityMsg:
		a := store.Activity(msg)
		m.feed.Push(a)
		m.counts[a.Kind]++
		m.rate[len(m.rate)-1]++
		m.refresh()
		return m, waitForActivity(m.updates)

	case feedClosedMsg:
		m.closed = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Follow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoTop()
		}
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.feed.Clear()
		m.refresh()
		return m, nil
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// viewportSize leaves room for the header, the status bar, the panel
// borders and the scrollbar gutter.
func (m Model) viewportSize() (int, int) {
	return max(m.width-3, 0), max(m.height-4, 0)
}

// refresh re-renders the feed into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	items := m.feed.Items()
	if len(items) == 0 {
		m.viewport.SetContent(DimStyle.Render(" waiting for activity under " + m.root))
		return
	}
	lines := make([]string, len(items))
	for i, a := range items {
		lines[i] = renderLine(a, m.viewport.Width)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if m.follow {
		m.viewport.GotoTop()
	}
}

func (m Model) View() string {
	if !m.ready {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	_, vh := m.viewportSize()
	lines := strings.Split(m.viewport.View(), "\n")
	bar := RenderScrollbar(vh, m.viewport.TotalLineCount(), m.viewport.YOffset)
	title := fmt.Sprintf("FEED (%d)", m.feed.Len())
	b.WriteString(RenderPanel(title, lines, bar, m.width, vh))
	b.WriteString("\n")

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	bg := lipgloss.NewStyle().Background(ColorBarBg)

	pulse := 0.7 + 0.3*math.Sin(float64(m.frame)*0.6)
	starFrames := []string{"✦", "✧", "✶", "✧", "✦", "⊹"}
	star := bg.Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x",
		int(80*pulse), int(255*pulse), int(120*pulse)))).Bold(true).
		Render(starFrames[m.frame%len(starFrames)])
	title := bg.Foreground(ColorCyan).Bold(true).Render("CLAUDE WATCH")

	counters := bg.Render("  ") +
		bg.Inherit(HistoryStyle).Render(fmt.Sprintf("HIST %d", m.counts[store.KindHistory])) + bg.Render("  ") +
		bg.Inherit(SessionStyle).Render(fmt.Sprintf("SESS %d", m.counts[store.KindSession])) + bg.Render("  ") +
		bg.Inherit(ProjectStyle).Render(fmt.Sprintf("PROJ %d", m.counts[store.KindProject])) + bg.Render("  ")
	spark := bg.Foreground(ColorGreen).Render(Sparkline(m.rate, 20))

	clockText := fmt.Sprintf("  TIME %s  ", time.Now().Format("15:04:05"))
	clock := bg.Foreground(ColorBarText).Render(clockText)

	left := bg.Render(" ") + star + bg.Render(" ") + title + counters + spark
	spacerLen := max(m.width-visibleLen(left)-len(clockText), 1)
	return left + bg.Render(strings.Repeat(" ", spacerLen)) + clock
}

func (m Model) renderStatusBar() string {
	bg := lipgloss.NewStyle().Background(ColorBarBg)

	var help []string
	for _, kb := range m.keys.bindings() {
		h := kb.Help()
		help = append(help, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	leftText := "  " + strings.Join(help, "  ")
	left := bg.Foreground(ColorBarText).Render(leftText)

	var rightParts []string
	rightLen := 0
	add := func(text string, color lipgloss.Color) {
		rightParts = append(rightParts, bg.Foreground(color).Render(text))
		rightLen += runewidth.StringWidth(text)
	}

	if m.closed {
		add("WATCHER STOPPED", ColorRed)
	}
	if m.follow {
		add("FOLLOW", ColorGreen)
	} else {
		add("PAUSED", ColorYellow)
	}
	if m.polling {
		add("POLLING", ColorYellowDim)
	}
	add(m.root, ColorDim)

	sep := bg.Foreground(ColorDim).Render(" │ ")
	rightTotal := rightLen + 3*(len(rightParts)-1) + 2
	right := strings.Join(rightParts, sep) + bg.Render("  ")

	spacerLen := max(m.width-runewidth.StringWidth(leftText)-rightTotal, 1)
	return left + bg.Render(strings.Repeat(" ", spacerLen)) + right
}
