package commandimpl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/internal/telegram"
	"github.com/orgball2608/insta-story-player/pkg/retry"
)

type endReason struct {
	err    error
	closed bool
}

// watch is one chat playing the stories of one user.
type watch struct {
	chatID   int64
	username string
	items    []domain.StoryItem
	session  player.Session
	statusID int

	deliver chan int
	refresh chan struct{}
	ended   chan endReason
	cancel  context.CancelFunc

	// owned by the refresh loop
	lastStatus string
}

func newWatch(chatID int64, username string, items []domain.StoryItem, cancel context.CancelFunc) *watch {
	return &watch{
		chatID:   chatID,
		username: username,
		items:    items,
		deliver:  make(chan int, len(items)),
		refresh:  make(chan struct{}, 1),
		ended:    make(chan endReason, 1),
		cancel:   cancel,
	}
}

func (w *watch) OnEvent(ev player.Event) {
	switch ev.Type {
	case player.EventIndexChanged:
		// Each index becomes active at most once, so the buffer never fills.
		w.deliver <- ev.Index
		w.requestRefresh()
	case player.EventStarted, player.EventPaused, player.EventResumed, player.EventStalled:
		w.requestRefresh()
	case player.EventClosed:
		w.end(endReason{closed: true})
	}
}

func (w *watch) requestRefresh() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

func (w *watch) end(r endReason) {
	select {
	case w.ended <- r:
	default:
	}
}

func (c *CommandImpl) handleWatch(ctx context.Context, chatID int64, args string) error {
	username := strings.TrimPrefix(strings.TrimSpace(args), "@")
	if username == "" {
		_, err := c.Telegram.SendMessage(chatID, "Please provide a username: /watch <username>")
		return err
	}

	var since time.Time
	if ttl := c.Config.Cleanup.StoryTTL; ttl > 0 {
		since = c.Clock.Now().Add(-ttl)
	}

	stories, err := retry.DoWithData(ctx, c.Logger, "ListActive", func() ([]*domain.Story, error) {
		return c.StoryRepo.ListActive(ctx, username, since)
	}, c.retryCfg)
	if err != nil {
		_, _ = c.Telegram.SendMessage(chatID, fmt.Sprintf("❌ Could not load stories for @%s, please try again later.", username))
		return fmt.Errorf("failed to list stories of %s: %w", username, err)
	}

	if len(stories) == 0 {
		_, err := c.Telegram.SendMessage(chatID, fmt.Sprintf("No active stories for @%s.", username))
		return err
	}

	if prev := c.activeWatch(chatID); prev != nil {
		prev.session.Close()
	}

	items := domain.Items(stories, c.Config.Player.ImageDuration, c.Config.Player.VideoFallbackDuration)

	wctx, cancel := context.WithCancel(ctx)
	w := newWatch(chatID, username, items, cancel)

	session, err := c.Player.NewSession(items,
		player.WithViewer(viewerID(chatID)),
		player.WithObserver(w),
		player.WithOnFinish(func(err error) {
			w.end(endReason{err: err})
		}),
	)
	if err != nil {
		cancel()
		_, _ = c.Telegram.SendMessage(chatID, fmt.Sprintf("❌ The stories of @%s cannot be played.", username))
		return fmt.Errorf("failed to start session for %s: %w", username, err)
	}
	w.session = session

	snap := session.Snapshot()
	w.lastStatus = renderStatus(username, snap)
	statusID, err := c.Telegram.SendMessageWithKeyboard(chatID, w.lastStatus, playbackKeyboard(snap))
	if err != nil {
		session.Close()
		cancel()
		return fmt.Errorf("failed to send status message: %w", err)
	}
	w.statusID = statusID

	c.mu.Lock()
	c.watches[chatID] = w
	c.mu.Unlock()

	c.Logger.Info("Watch started",
		"chat_id", chatID,
		"username", username,
		"session_id", session.ID(),
		"items", len(items))

	w.deliver <- 0
	c.wg.Add(2)
	go c.deliverLoop(wctx, w)
	go c.refreshLoop(wctx, w)
	return nil
}

// deliverLoop sends items to the chat in activation order. A successful
// send is the readiness signal of the item.
func (c *CommandImpl) deliverLoop(ctx context.Context, w *watch) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case index := <-w.deliver:
			c.deliverItem(ctx, w, index)
		}
	}
}

func (c *CommandImpl) deliverItem(ctx context.Context, w *watch, index int) {
	item := w.items[index]

	sent, err := retry.DoWithData(ctx, c.Logger, "SendMedia", func() (*telegram.SentMedia, error) {
		return c.Telegram.SendMedia(w.chatID, item.Kind, item.MediaURL, itemCaption(w.username, index, len(w.items), item.Caption))
	}, c.retryCfg)
	if err != nil {
		// The session's ready timeout decides what happens next.
		c.Logger.Error("Failed to deliver story",
			"chat_id", w.chatID,
			"story_id", item.ID,
			"index", index,
			"error", err)
		return
	}

	if err := w.session.MarkReady(index, sent.Duration); err != nil {
		c.Logger.Error("Failed to mark story ready", "story_id", item.ID, "error", err)
	}
}

func (c *CommandImpl) refreshLoop(ctx context.Context, w *watch) {
	defer c.wg.Done()

	ticker := c.Clock.NewTicker(c.Config.Player.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.refreshStatus(w)
		case <-w.refresh:
			c.refreshStatus(w)
		case r := <-w.ended:
			c.finishWatch(w, r)
			return
		}
	}
}

func (c *CommandImpl) refreshStatus(w *watch) {
	snap := w.session.Snapshot()
	if snap.Phase.Terminal() {
		return
	}

	text := renderStatus(w.username, snap)
	if text == w.lastStatus {
		return
	}
	if !c.limiter.Allow(w.chatID) {
		return
	}

	if err := c.Telegram.EditMessageWithKeyboard(w.chatID, w.statusID, text, playbackKeyboard(snap)); err != nil {
		c.Logger.Debug("Failed to refresh status message", "chat_id", w.chatID, "error", err)
		return
	}
	w.lastStatus = text
}

func (c *CommandImpl) finishWatch(w *watch, r endReason) {
	c.removeWatch(w)
	w.cancel()
	c.limiter.Forget(w.chatID)

	snap := w.session.Snapshot()
	if err := c.Telegram.EditMessageText(w.chatID, w.statusID, renderEnd(w.username, snap, r)); err != nil {
		c.Logger.Warn("Failed to edit final status message", "chat_id", w.chatID, "error", err)
	}

	c.Logger.Info("Watch ended",
		"chat_id", w.chatID,
		"username", w.username,
		"session_id", snap.SessionID,
		"index", snap.Index,
		"closed", r.closed,
		"error", r.err)
}

func (c *CommandImpl) activeWatch(chatID int64) *watch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watches[chatID]
}

func (c *CommandImpl) removeWatch(w *watch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watches[w.chatID] == w {
		delete(c.watches, w.chatID)
	}
}

// stopAll closes every playing session and waits for the watch loops.
func (c *CommandImpl) stopAll() {
	c.mu.Lock()
	watches := make([]*watch, 0, len(c.watches))
	for _, w := range c.watches {
		watches = append(watches, w)
	}
	c.mu.Unlock()

	for _, w := range watches {
		w.session.Close()
	}
	c.wg.Wait()
}
