package commandimpl

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/insta-story-player/internal/player"
	"github.com/orgball2608/insta-story-player/pkg/formatter"
)

const barBudget = 24

func phaseIcon(p player.Phase) string {
	switch p {
	case player.PhaseIdle:
		return "⏳"
	case player.PhaseRunning:
		return "▶️"
	case player.PhasePaused:
		return "⏸"
	default:
		return "⏭"
	}
}

// renderStatus draws one bar segment per item followed by the clock of the
// active item.
func renderStatus(username string, snap player.Snapshot) string {
	width := barBudget / max(snap.Total, 1)
	width = min(max(width, 1), 6)

	bars := make([]string, 0, len(snap.Progress))
	for _, f := range snap.Progress {
		bars = append(bars, formatter.ProgressBar(f, width))
	}

	return fmt.Sprintf("%s @%s · %d/%d\n%s\n%s / %s",
		phaseIcon(snap.Phase),
		username,
		snap.Index+1,
		snap.Total,
		strings.Join(bars, " "),
		formatter.FormatClock(snap.Elapsed),
		formatter.FormatClock(snap.Allocated),
	)
}

func renderEnd(username string, snap player.Snapshot, r endReason) string {
	switch {
	case r.closed:
		return fmt.Sprintf("⏹ Stopped @%s at story %d/%d.", username, snap.Index+1, snap.Total)
	case errors.Is(r.err, player.ErrReadyTimeout):
		return fmt.Sprintf("⚠️ Stopped @%s at story %d/%d: the story did not load in time.", username, snap.Index+1, snap.Total)
	case r.err != nil:
		return fmt.Sprintf("⚠️ Stopped @%s at story %d/%d.", username, snap.Index+1, snap.Total)
	default:
		return fmt.Sprintf("✅ You watched all %d stories of @%s.", snap.Total, username)
	}
}

func itemCaption(username string, index, total int, caption string) string {
	head := fmt.Sprintf("@%s · %d/%d", username, index+1, total)
	if caption == "" {
		return head
	}
	return head + "\n" + caption
}

func playbackKeyboard(snap player.Snapshot) tgbotapi.InlineKeyboardMarkup {
	hold := button("⏸ Pause", actionPause, snap.SessionID)
	if snap.Phase == player.PhasePaused {
		hold = button("▶️ Resume", actionResume, snap.SessionID)
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			hold,
			button("⏭ Skip", actionSkip, snap.SessionID),
			button("⏹ Stop", actionStop, snap.SessionID),
		),
	)
}

func button(text, action, sessionID string) tgbotapi.InlineKeyboardButton {
	data, _ := json.Marshal(callbackData{Action: action, Session: sessionID})
	return tgbotapi.NewInlineKeyboardButtonData(text, string(data))
}
