package commandimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/insta-story-player/pkg/formatter"
)

const helpMessage = `👋 Welcome to the Story Player Bot!

/watch <username> - Play the active stories of a user, one after another.
/stop - Stop the stories playing in this chat.
/history - Show the stories you watched recently.

While stories play, use the buttons under the status message to pause, resume, skip or stop.

Type /help at any time to see this guide.`

const historyLimit = 10

// callbackData is the JSON payload of the playback buttons. Session ties a
// button to the session it was rendered for. Keys are short because
// Telegram caps callback data at 64 bytes.
type callbackData struct {
	Action  string `json:"a"`
	Session string `json:"s"`
}

const (
	actionPause  = "pause"
	actionResume = "resume"
	actionSkip   = "skip"
	actionStop   = "stop"
)

func (c *CommandImpl) HandleCommand(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := c.Telegram.GetUpdatesChan(u)
	c.Logger.Info("Command handler started, listening for updates.")

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Command handler shutting down.")
			c.Telegram.StopReceivingUpdates()
			c.stopAll()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				c.Logger.Warn("Telegram updates channel closed unexpectedly.")
				return errors.New("telegram updates channel closed")
			}

			go c.handleUpdate(ctx, update)
		}
	}
}

func (c *CommandImpl) handleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("Panic recovered while processing an update", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if u.CallbackQuery != nil {
		c.handleCallback(u.CallbackQuery)
		return
	}

	if u.Message == nil || !u.Message.IsCommand() {
		return
	}

	c.Logger.Info("Command received", "chat_id", u.Message.Chat.ID, "text", u.Message.Text)

	if !c.cmdLimiter.Allow(u.Message.Chat.ID) {
		c.Logger.Warn("Command rate limited", "chat_id", u.Message.Chat.ID)
		if _, err := c.Telegram.SendMessage(u.Message.Chat.ID, "⏳ Too many commands, please slow down."); err != nil {
			c.Logger.Error("Failed to send message", "error", err)
		}
		return
	}

	if err := c.processCommand(ctx, u); err != nil {
		c.Logger.Error("Error processing command",
			"command", u.Message.Command(),
			"error", err)
	}
}

func (c *CommandImpl) processCommand(ctx context.Context, update tgbotapi.Update) error {
	command := update.Message.Command()
	chatID := update.Message.Chat.ID

	switch command {
	case "start", "help":
		_, err := c.Telegram.SendMessage(chatID, helpMessage)
		return err
	case "watch":
		return c.handleWatch(ctx, chatID, update.Message.CommandArguments())
	case "stop":
		return c.handleStop(chatID)
	case "history":
		return c.handleHistory(ctx, chatID)
	default:
		_, err := c.Telegram.SendMessage(chatID, "Unknown command. Type /help to see the list of available commands.")
		return err
	}
}

func (c *CommandImpl) handleStop(chatID int64) error {
	w := c.activeWatch(chatID)
	if w == nil {
		_, err := c.Telegram.SendMessage(chatID, "Nothing is playing.")
		return err
	}

	w.session.Close()
	return nil
}

func (c *CommandImpl) handleHistory(ctx context.Context, chatID int64) error {
	views, err := c.ViewsRepo.ListByViewer(ctx, viewerID(chatID), historyLimit)
	if err != nil {
		_, _ = c.Telegram.SendMessage(chatID, "❌ Could not load your history, please try again later.")
		return fmt.Errorf("failed to list story views: %w", err)
	}

	if len(views) == 0 {
		_, err := c.Telegram.SendMessage(chatID, "You have not watched any stories yet.")
		return err
	}

	var sb strings.Builder
	completed := 0
	for _, v := range views {
		mark := "◐"
		if v.Completed {
			mark = "✓"
			completed++
		}
		fmt.Fprintf(&sb, "%s %s · %s\n", mark, v.StoryID, formatter.FormatClock(v.Watched))
	}

	header := fmt.Sprintf("Your last %s stories (%s watched to the end):\n\n",
		formatter.FormatNumber(len(views)), formatter.FormatNumber(completed))

	_, err = c.Telegram.SendMessage(chatID, header+sb.String())
	return err
}

func (c *CommandImpl) handleCallback(cq *tgbotapi.CallbackQuery) {
	var data callbackData
	if err := json.Unmarshal([]byte(cq.Data), &data); err != nil {
		c.Logger.Error("Failed to unmarshal callback data", "error", err)
		c.answer(cq.ID, "")
		return
	}

	if cq.Message == nil || cq.Message.Chat == nil {
		c.answer(cq.ID, "")
		return
	}

	w := c.activeWatch(cq.Message.Chat.ID)
	if w == nil || w.session.ID() != data.Session {
		c.answer(cq.ID, "These stories are no longer playing.")
		return
	}

	switch data.Action {
	case actionPause:
		w.session.PressIn()
		c.answer(cq.ID, "Paused")
	case actionResume:
		w.session.PressOut()
		c.answer(cq.ID, "Resumed")
	case actionSkip:
		w.session.Skip()
		c.answer(cq.ID, "Skipped")
	case actionStop:
		w.session.Close()
		c.answer(cq.ID, "Stopped")
	default:
		c.Logger.Warn("Unknown callback action", "action", data.Action)
		c.answer(cq.ID, "")
		return
	}

	w.requestRefresh()
}

func (c *CommandImpl) answer(callbackID, text string) {
	if err := c.Telegram.AnswerCallback(callbackID, text); err != nil {
		c.Logger.Warn("Failed to answer callback", "error", err)
	}
}

func viewerID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
