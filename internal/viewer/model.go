package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/pkg/formatter"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = 100 * time.Millisecond
	probeTimeout = 20 * time.Second
	barBudget    = 60
)

// Model is the bubbletea model of a terminal story session.
type Model struct {
	username string
	items    []domain.StoryItem
	session  player.Session
	events   <-chan player.Event
	prober   Prober

	// probed is shared by every copy of the model; Update runs on one
	// goroutine.
	probed map[int]bool

	snap      player.Snapshot
	status    string
	finished  bool
	finishErr error
	closed    bool
	width     int
}

func New(username string, items []domain.StoryItem, session player.Session, events <-chan player.Event, prober Prober) Model {
	return Model{
		username: username,
		items:    items,
		session:  session,
		events:   events,
		prober:   prober,
		probed:   make(map[int]bool),
		snap:     session.Snapshot(),
		status:   "Loading...",
	}
}

// Init starts the event pump and the ticker, and preloads the first two
// items.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		tickCmd(),
		m.probeCmd(0),
		m.probeCmd(1),
	)
}

func waitForEvent(events <-chan player.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// probeCmd loads item index once. Out-of-range and already probed indices
// yield nil.
func (m Model) probeCmd(index int) tea.Cmd {
	if index < 0 || index >= len(m.items) || m.probed[index] {
		return nil
	}
	m.probed[index] = true

	item := m.items[index]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		d, err := m.prober.Probe(ctx, item)
		return ProbedMsg{Index: index, Duration: d, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case TickMsg:
		m.snap = m.session.Snapshot()
		if m.snap.Phase.Terminal() {
			return m, tea.Quit
		}
		return m, tea.Batch(tickCmd(), m.probeCmd(m.snap.Index), m.probeCmd(m.snap.Index+1))

	case ProbedMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("Story %d/%d failed to load", msg.Index+1, len(m.items))
			return m, nil
		}
		if err := m.session.MarkReady(msg.Index, msg.Duration); err != nil {
			m.status = err.Error()
		}
		m.snap = m.session.Snapshot()
		return m, nil

	case EventMsg:
		return m.handleEvent(msg.Event)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC, KeyEsc:
		m.session.Close()
		m.closed = true
		return m, tea.Quit

	case KeySpace:
		// A terminal has no key release, so space toggles the hold.
		if m.session.Snapshot().Phase == player.PhasePaused {
			m.session.PressOut()
		} else {
			m.session.PressIn()
		}

	case KeyNext, KeyRight:
		m.session.Skip()
	}

	m.snap = m.session.Snapshot()
	return m, nil
}

func (m Model) handleEvent(ev player.Event) (tea.Model, tea.Cmd) {
	m.snap = m.session.Snapshot()

	switch ev.Type {
	case player.EventStarted:
		m.status = ""
	case player.EventIndexChanged:
		m.status = "Loading..."
		return m, tea.Batch(
			waitForEvent(m.events),
			m.probeCmd(ev.Index),
			m.probeCmd(ev.Index+1),
		)
	case player.EventStalled:
		m.status = fmt.Sprintf("Story %d/%d did not load in time", ev.Index+1, ev.Total)
	case player.EventFinished:
		m.finished = true
		m.finishErr = ev.Err
		return m, tea.Quit
	case player.EventClosed:
		m.closed = true
		return m, tea.Quit
	}

	return m, waitForEvent(m.events)
}

// Finished reports whether every story was played.
func (m Model) Finished() bool {
	return m.finished && m.finishErr == nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("@" + m.username))
	b.WriteString("  ")
	b.WriteString(DimStyle.Render(fmt.Sprintf("%d/%d", m.snap.Index+1, m.snap.Total)))
	b.WriteString("  ")
	b.WriteString(PhaseStyle.Render(m.snap.Phase.String()))
	b.WriteString("\n\n")

	b.WriteString(m.renderBars())
	b.WriteString("\n\n")

	if m.snap.Index < len(m.items) {
		item := m.items[m.snap.Index]
		b.WriteString(CaptionStyle.Render(fmt.Sprintf("[%s] %s", item.Kind, item.MediaURL)))
		b.WriteString("\n")
		if item.Caption != "" {
			b.WriteString(CaptionStyle.Render(item.Caption))
			b.WriteString("\n")
		}
	}

	b.WriteString(DimStyle.Render(fmt.Sprintf("  %s / %s",
		formatter.FormatClock(m.snap.Elapsed),
		formatter.FormatClock(m.snap.Allocated),
	)))
	b.WriteString("\n")

	switch {
	case m.finished && errors.Is(m.finishErr, player.ErrReadyTimeout):
		b.WriteString(ErrorStyle.Render("Stopped: a story did not load in time."))
	case m.finished && m.finishErr != nil:
		b.WriteString(ErrorStyle.Render("Stopped: " + m.finishErr.Error()))
	case m.finished:
		b.WriteString(DoneStyle.Render("All stories watched."))
	case m.closed:
		b.WriteString(DimStyle.Render("Stopped."))
	case m.status != "":
		b.WriteString(DimStyle.Render(m.status))
	}
	b.WriteString("\n\n")

	b.WriteString(footer())
	return b.String()
}

func (m Model) renderBars() string {
	budget := barBudget
	if m.width > 0 && m.width < budget {
		budget = m.width
	}
	width := min(max(budget/max(m.snap.Total, 1)-1, 1), 12)

	bars := make([]string, 0, len(m.snap.Progress))
	for i, f := range m.snap.Progress {
		style := PendingStyle
		if i <= m.snap.Index {
			style = WatchedStyle
		}
		bars = append(bars, style.Render(formatter.ProgressBar(f, width)))
	}
	return strings.Join(bars, " ")
}

func footer() string {
	keys := []struct{ key, desc string }{
		{"space", "hold"},
		{"n", "skip"},
		{"q", "quit"},
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, FooterKeyStyle.Render(k.key)+" "+FooterDescStyle.Render(k.desc))
	}
	return strings.Join(parts, "  ")
}
