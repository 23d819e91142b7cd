package commandimpl

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/internal/player/playerimpl"
	mock_story "github.com/orgball2608/insta-story-player/internal/repositories/story/mocks"
	mock_storyview "github.com/orgball2608/insta-story-player/internal/repositories/storyview/mocks"
	"github.com/orgball2608/insta-story-player/internal/telegram"
	mock_telegram "github.com/orgball2608/insta-story-player/internal/telegram/mocks"
	"github.com/orgball2608/insta-story-player/pkg/config"
	"github.com/orgball2608/insta-story-player/pkg/logger"
	"github.com/orgball2608/insta-story-player/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const chatID = int64(7)

type fixture struct {
	c       *CommandImpl
	tg      *mock_telegram.MockClient
	stories *mock_story.MockRepository
	views   *mock_storyview.MockRepository
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Player.ImageDuration = 6 * time.Second
	cfg.Player.VideoFallbackDuration = 15 * time.Second
	cfg.Player.RefreshInterval = 2 * time.Second
	cfg.Cleanup.StoryTTL = 24 * time.Hour

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	factory := playerimpl.NewWithSettings(clock, logger.NewNop(), playerimpl.Settings{
		MaxVideoDuration: time.Minute,
		ReadyTimeout:     15 * time.Second,
		StallPolicy:      player.StallSkip,
	})

	f := fixture{
		tg:      mock_telegram.NewMockClient(ctrl),
		stories: mock_story.NewMockRepository(ctrl),
		views:   mock_storyview.NewMockRepository(ctrl),
		clock:   clock,
	}

	f.c = New(Opts{
		Telegram:  f.tg,
		Player:    factory,
		StoryRepo: f.stories,
		ViewsRepo: f.views,
		Clock:     clock,
		Logger:    logger.NewNop(),
		Config:    cfg,
	})
	f.c.retryCfg = retry.Config{
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1,
	}

	t.Cleanup(f.c.stopAll)
	return f
}

// expectStatusEdits allows any number of progress refreshes and callback
// answers.
func (f fixture) expectStatusEdits() {
	f.tg.EXPECT().EditMessageWithKeyboard(chatID, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.tg.EXPECT().AnswerCallback(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

// expectFinalStatus captures the text the status message ends with.
func (f fixture) expectFinalStatus() <-chan string {
	final := make(chan string, 1)
	f.tg.EXPECT().EditMessageText(chatID, 100, gomock.Any()).DoAndReturn(func(_ int64, _ int, text string) error {
		final <- text
		return nil
	})
	return final
}

func (f fixture) startWatch(t *testing.T, stories ...*domain.Story) *watch {
	t.Helper()

	f.stories.EXPECT().ListActive(gomock.Any(), "alice", f.clock.Now().Add(-24*time.Hour)).Return(stories, nil)
	f.tg.EXPECT().SendMessageWithKeyboard(chatID, gomock.Any(), gomock.Any()).Return(100, nil)

	require.NoError(t, f.c.processCommand(context.Background(), commandUpdate(chatID, "/watch @alice")))

	w := f.c.activeWatch(chatID)
	require.NotNil(t, w)
	return w
}

func commandUpdate(chatID int64, text string) tgbotapi.Update {
	cmdLen := strings.IndexByte(text, ' ')
	if cmdLen < 0 {
		cmdLen = len(text)
	}

	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{ID: chatID},
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: cmdLen},
			},
		},
	}
}

func callback(action, sessionID string) *tgbotapi.CallbackQuery {
	data, _ := json.Marshal(callbackData{Action: action, Session: sessionID})
	return &tgbotapi.CallbackQuery{
		ID:   "cb",
		Data: string(data),
		Message: &tgbotapi.Message{
			MessageID: 100,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}
}

func image(id string) *domain.Story {
	return &domain.Story{
		StoryID:   id,
		UserName:  "alice",
		MediaKind: domain.MediaKindImage,
		MediaURL:  "https://cdn.example.com/" + id + ".jpg",
	}
}

func waitState(t *testing.T, s player.Session, index int, phase player.Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Index == index && snap.Phase == phase
	}, time.Second, time.Millisecond)
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out")
		return ""
	}
}

func TestWatchRequiresUsername(t *testing.T) {
	f := newFixture(t)

	f.tg.EXPECT().SendMessage(chatID, "Please provide a username: /watch <username>").Return(1, nil)

	require.NoError(t, f.c.processCommand(context.Background(), commandUpdate(chatID, "/watch")))
}

func TestWatchWithoutStories(t *testing.T) {
	f := newFixture(t)

	f.stories.EXPECT().ListActive(gomock.Any(), "bob", gomock.Any()).Return(nil, nil)
	f.tg.EXPECT().SendMessage(chatID, "No active stories for @bob.").Return(1, nil)

	require.NoError(t, f.c.processCommand(context.Background(), commandUpdate(chatID, "/watch bob")))
	assert.Nil(t, f.c.activeWatch(chatID))
}

func TestWatchRepositoryFailure(t *testing.T) {
	f := newFixture(t)

	f.stories.EXPECT().ListActive(gomock.Any(), "bob", gomock.Any()).Return(nil, errors.New("db down")).Times(2)
	f.tg.EXPECT().SendMessage(chatID, gomock.Any()).Return(1, nil)

	err := f.c.processCommand(context.Background(), commandUpdate(chatID, "/watch bob"))
	assert.Error(t, err)
	assert.Nil(t, f.c.activeWatch(chatID))
}

func TestWatchPlaysEveryStoryInOrder(t *testing.T) {
	f := newFixture(t)
	f.expectStatusEdits()
	final := f.expectFinalStatus()

	sent := make(chan string, 2)
	f.tg.EXPECT().SendMedia(chatID, domain.MediaKindImage, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ int64, _ domain.MediaKind, url, _ string) (*telegram.SentMedia, error) {
			sent <- url
			return &telegram.SentMedia{MessageID: 1}, nil
		}).Times(2)

	w := f.startWatch(t, image("s1"), image("s2"))

	assert.Equal(t, "https://cdn.example.com/s1.jpg", receive(t, sent))
	waitState(t, w.session, 0, player.PhaseRunning)

	f.clock.Advance(6 * time.Second)
	assert.Equal(t, "https://cdn.example.com/s2.jpg", receive(t, sent))
	waitState(t, w.session, 1, player.PhaseRunning)

	f.clock.Advance(6 * time.Second)
	assert.Equal(t, "✅ You watched all 2 stories of @alice.", receive(t, final))

	require.Eventually(t, func() bool {
		return f.c.activeWatch(chatID) == nil
	}, time.Second, time.Millisecond)
}

func TestPlaybackButtons(t *testing.T) {
	f := newFixture(t)
	f.expectStatusEdits()
	final := f.expectFinalStatus()

	f.tg.EXPECT().SendMedia(chatID, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&telegram.SentMedia{MessageID: 1}, nil).AnyTimes()

	w := f.startWatch(t, image("s1"), image("s2"))
	waitState(t, w.session, 0, player.PhaseRunning)
	id := w.session.ID()

	f.c.handleCallback(callback(actionPause, id))
	waitState(t, w.session, 0, player.PhasePaused)

	f.c.handleCallback(callback(actionResume, id))
	waitState(t, w.session, 0, player.PhaseRunning)

	f.c.handleCallback(callback(actionSkip, id))
	waitState(t, w.session, 1, player.PhaseRunning)

	f.c.handleCallback(callback(actionStop, id))
	assert.Equal(t, "⏹ Stopped @alice at story 2/2.", receive(t, final))
}

func TestStaleButtonIsRejected(t *testing.T) {
	f := newFixture(t)
	f.tg.EXPECT().SendMedia(chatID, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&telegram.SentMedia{MessageID: 1}, nil).AnyTimes()
	f.tg.EXPECT().EditMessageWithKeyboard(chatID, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.tg.EXPECT().EditMessageText(chatID, 100, gomock.Any()).Return(nil).AnyTimes()
	f.tg.EXPECT().AnswerCallback("cb", "These stories are no longer playing.").Return(nil)

	w := f.startWatch(t, image("s1"))
	waitState(t, w.session, 0, player.PhaseRunning)

	f.c.handleCallback(callback(actionPause, "another-session"))
	assert.Equal(t, player.PhaseRunning, w.session.Snapshot().Phase)
}

func TestFailedDeliveryStallsAndSkips(t *testing.T) {
	f := newFixture(t)
	f.expectStatusEdits()
	final := f.expectFinalStatus()

	failed := make(chan string, 2)
	f.tg.EXPECT().SendMedia(chatID, gomock.Any(), "https://cdn.example.com/s1.jpg", gomock.Any()).
		DoAndReturn(func(_ int64, _ domain.MediaKind, url, _ string) (*telegram.SentMedia, error) {
			failed <- url
			return nil, errors.New("bad request: wrong file identifier")
		}).Times(2)
	f.tg.EXPECT().SendMedia(chatID, gomock.Any(), "https://cdn.example.com/s2.jpg", gomock.Any()).
		Return(&telegram.SentMedia{MessageID: 2}, nil)

	w := f.startWatch(t, image("s1"), image("s2"))

	receive(t, failed)
	receive(t, failed)
	assert.Equal(t, player.PhaseIdle, w.session.Snapshot().Phase)

	f.clock.Advance(15 * time.Second)
	waitState(t, w.session, 1, player.PhaseRunning)

	f.clock.Advance(6 * time.Second)
	assert.Equal(t, "✅ You watched all 2 stories of @alice.", receive(t, final))
}

func TestNewWatchReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	f.expectStatusEdits()
	f.tg.EXPECT().SendMedia(chatID, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&telegram.SentMedia{MessageID: 1}, nil).AnyTimes()
	f.tg.EXPECT().EditMessageText(chatID, 100, "⏹ Stopped @alice at story 1/1.").Return(nil)

	first := f.startWatch(t, image("s1"))
	waitState(t, first.session, 0, player.PhaseRunning)

	second := f.startWatch(t, image("s2"))
	assert.NotEqual(t, first.session.ID(), second.session.ID())

	select {
	case <-first.session.Done():
	case <-time.After(time.Second):
		t.Fatal("previous session was not closed")
	}
	assert.Same(t, second, f.c.activeWatch(chatID))

	f.tg.EXPECT().EditMessageText(chatID, 100, gomock.Any()).Return(nil).AnyTimes()
}

func TestStopWithoutWatch(t *testing.T) {
	f := newFixture(t)

	f.tg.EXPECT().SendMessage(chatID, "Nothing is playing.").Return(1, nil)

	require.NoError(t, f.c.processCommand(context.Background(), commandUpdate(chatID, "/stop")))
}

func TestHistory(t *testing.T) {
	f := newFixture(t)

	f.views.EXPECT().ListByViewer(gomock.Any(), "7", uint64(historyLimit)).Return([]*domain.StoryView{
		{StoryID: "s2", Watched: 2 * time.Second},
		{StoryID: "s1", Watched: 6 * time.Second, Completed: true},
	}, nil)

	var text string
	f.tg.EXPECT().SendMessage(chatID, gomock.Any()).DoAndReturn(func(_ int64, msg string) (int, error) {
		text = msg
		return 1, nil
	})

	require.NoError(t, f.c.processCommand(context.Background(), commandUpdate(chatID, "/history")))
	assert.Contains(t, text, "Your last 2 stories (1 watched to the end)")
	assert.Contains(t, text, "◐ s2 · 0:02")
	assert.Contains(t, text, "✓ s1 · 0:06")
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)

	f.tg.EXPECT().SendMessage(chatID, gomock.Any()).Return(1, nil)

	require.NoError(t, f.c.processCommand(context.Background(), commandUpdate(chatID, "/dance")))
}

func TestCommandsAreRateLimitedPerChat(t *testing.T) {
	f := newFixture(t)

	f.tg.EXPECT().SendMessage(chatID, helpMessage).Return(1, nil).Times(5)
	f.tg.EXPECT().SendMessage(chatID, "⏳ Too many commands, please slow down.").Return(1, nil)
	f.tg.EXPECT().SendMessage(chatID+1, helpMessage).Return(1, nil)

	for i := 0; i < 6; i++ {
		f.c.handleUpdate(context.Background(), commandUpdate(chatID, "/help"))
	}
	f.c.handleUpdate(context.Background(), commandUpdate(chatID+1, "/help"))
}
