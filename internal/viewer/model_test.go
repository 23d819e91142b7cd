package viewer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/internal/player/playerimpl"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tea "github.com/charmbracelet/bubbletea"
)

type proberFunc func(ctx context.Context, item domain.StoryItem) (time.Duration, error)

func (f proberFunc) Probe(ctx context.Context, item domain.StoryItem) (time.Duration, error) {
	return f(ctx, item)
}

func items(n int) []domain.StoryItem {
	out := make([]domain.StoryItem, n)
	for i := range out {
		out[i] = domain.StoryItem{
			ID:              string(rune('a' + i)),
			Username:        "alice",
			Kind:            domain.MediaKindImage,
			MediaURL:        "https://cdn.example.com/" + string(rune('a'+i)) + ".jpg",
			NominalDuration: 6 * time.Second,
		}
	}
	return out
}

func newTestModel(t *testing.T, n int) (Model, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	bridge := NewEventBridge(64)
	factory := playerimpl.NewWithSettings(clock, logger.NewNop(), playerimpl.DefaultSettings(), bridge)

	its := items(n)
	session, err := factory.NewSession(its, player.WithViewer("terminal"))
	require.NoError(t, err)
	t.Cleanup(session.Close)

	prober := proberFunc(func(context.Context, domain.StoryItem) (time.Duration, error) {
		return 0, nil
	})
	return New("alice", its, session, bridge.Events(), prober), clock
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case KeySpace:
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case KeyRight:
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestProbedItemStartsPlayback(t *testing.T) {
	m, _ := newTestModel(t, 2)
	assert.Equal(t, player.PhaseIdle, m.snap.Phase)

	m, _ = update(t, m, ProbedMsg{Index: 0})
	assert.Equal(t, player.PhaseRunning, m.snap.Phase)
}

func TestFailedProbeLeavesItemWaiting(t *testing.T) {
	m, _ := newTestModel(t, 2)

	m, _ = update(t, m, ProbedMsg{Index: 0, Err: errors.New("404")})
	assert.Equal(t, player.PhaseIdle, m.snap.Phase)
	assert.Equal(t, "Story 1/2 failed to load", m.status)
}

func TestSpaceTogglesHold(t *testing.T) {
	m, clock := newTestModel(t, 2)
	m, _ = update(t, m, ProbedMsg{Index: 0})

	clock.Advance(2 * time.Second)
	m, _ = update(t, m, key(KeySpace))
	assert.Equal(t, player.PhasePaused, m.snap.Phase)
	assert.Equal(t, 2*time.Second, m.snap.Elapsed)

	clock.Advance(10 * time.Second)
	m, _ = update(t, m, key(KeySpace))
	assert.Equal(t, player.PhaseRunning, m.snap.Phase)
	assert.Equal(t, 2*time.Second, m.snap.Elapsed)
}

func TestSkipKeys(t *testing.T) {
	m, _ := newTestModel(t, 3)
	m, _ = update(t, m, ProbedMsg{Index: 0})

	m, _ = update(t, m, key(KeyNext))
	assert.Equal(t, 1, m.snap.Index)

	m, _ = update(t, m, key(KeyRight))
	assert.Equal(t, 2, m.snap.Index)
}

func TestQuitClosesSession(t *testing.T) {
	m, _ := newTestModel(t, 2)

	m, cmd := update(t, m, key(KeyQuit))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.closed)

	select {
	case <-m.session.Done():
	default:
		t.Fatal("session should be closed")
	}
}

func TestFinishedEventQuits(t *testing.T) {
	m, _ := newTestModel(t, 1)

	m, cmd := update(t, m, EventMsg{Event: player.Event{Type: player.EventFinished}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Finished())
	assert.Contains(t, m.View(), "All stories watched.")
}

func TestAbortedSessionIsReported(t *testing.T) {
	m, _ := newTestModel(t, 1)

	m, _ = update(t, m, EventMsg{Event: player.Event{Type: player.EventFinished, Err: player.ErrReadyTimeout}})
	assert.False(t, m.Finished())
	assert.Contains(t, m.View(), "a story did not load in time")
}

func TestIndexChangePreloadsNextItem(t *testing.T) {
	m, _ := newTestModel(t, 3)
	m.probed[0] = true
	m.probed[1] = true

	_, cmd := update(t, m, EventMsg{Event: player.Event{Type: player.EventIndexChanged, Index: 1}})
	require.NotNil(t, cmd)
	assert.True(t, m.probed[2])
}

func TestTickProbesItemsMissedByDroppedEvents(t *testing.T) {
	m, _ := newTestModel(t, 3)
	m.probed[0] = true
	m.probed[1] = true
	m, _ = update(t, m, ProbedMsg{Index: 0})
	m.session.Skip()

	_, cmd := update(t, m, TickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.True(t, m.probed[2])
}

func TestProbeCmdRunsOncePerIndex(t *testing.T) {
	m, _ := newTestModel(t, 2)

	require.NotNil(t, m.probeCmd(1))
	assert.Nil(t, m.probeCmd(1))
	assert.Nil(t, m.probeCmd(2))

	msg := m.probeCmd(0)()
	assert.Equal(t, ProbedMsg{Index: 0}, msg)
}

func TestTickQuitsOnceSessionIsOver(t *testing.T) {
	m, _ := newTestModel(t, 1)

	_, cmd := update(t, m, TickMsg(time.Now()))
	require.NotNil(t, cmd)

	m.session.Close()
	_, cmd = update(t, m, TickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewShowsProgress(t *testing.T) {
	m, _ := newTestModel(t, 2)
	m, _ = update(t, m, ProbedMsg{Index: 0})

	view := m.View()
	assert.Contains(t, view, "@alice")
	assert.Contains(t, view, "1/2")
	assert.Contains(t, view, "running")
	assert.Contains(t, view, "0:00 / 0:06")
	assert.Contains(t, view, "space")
}

func TestEventBridgeNeverBlocks(t *testing.T) {
	b := NewEventBridge(1)

	b.OnEvent(player.Event{Type: player.EventOpened})
	b.OnEvent(player.Event{Type: player.EventStarted})

	ev := <-b.Events()
	assert.Equal(t, player.EventOpened, ev.Type)
	assert.Len(t, b.Events(), 0)
}
