package telegramimpl

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/insta-story-player/internal/domain"
	"github.com/orgball2608/insta-story-player/internal/telegram"
)

// SendMessageToUser sends a text message to the configured user
func (tg *TelegramImpl) SendMessageToUser(message string) {
	if tg.Config.Telegram.User == 0 {
		return
	}

	msg := tgbotapi.NewMessage(tg.Config.Telegram.User, message)
	_, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending message to user",
			"userID", tg.Config.Telegram.User,
			"error", err)
		return
	}

	tg.Logger.Info("Message sent to user",
		"userID", tg.Config.Telegram.User)
}

// SendMessage sends a message to a specific chat ID
func (tg *TelegramImpl) SendMessage(chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	sentMsg, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending message",
			"chatID", chatID,
			"error", err)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	tg.Logger.Debug("Message sent",
		"chatID", chatID,
		"messageID", sentMsg.MessageID)
	return sentMsg.MessageID, nil
}

func (tg *TelegramImpl) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard

	sentMsg, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending message with keyboard",
			"chatID", chatID,
			"error", err)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	return sentMsg.MessageID, nil
}

func (tg *TelegramImpl) EditMessageText(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := tg.TgBot.Request(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

func (tg *TelegramImpl) EditMessageWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	if _, err := tg.TgBot.Request(edit); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// SendMedia posts a story item by URL and reports what Telegram accepted.
func (tg *TelegramImpl) SendMedia(chatID int64, kind domain.MediaKind, url, caption string) (*telegram.SentMedia, error) {
	var chattable tgbotapi.Chattable
	switch kind {
	case domain.MediaKindImage:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
		photo.Caption = caption
		chattable = photo
	case domain.MediaKindVideo:
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(url))
		video.Caption = caption
		video.SupportsStreaming = true
		chattable = video
	default:
		return nil, fmt.Errorf("unsupported media kind: %s", kind)
	}

	sentMsg, err := tg.TgBot.Send(chattable)
	if err != nil {
		tg.Logger.Error("Error sending media",
			"chatID", chatID,
			"kind", kind,
			"url", url,
			"error", err)
		return nil, fmt.Errorf("failed to send %s: %w", kind, err)
	}

	sent := &telegram.SentMedia{MessageID: sentMsg.MessageID}
	if sentMsg.Video != nil {
		sent.Duration = time.Duration(sentMsg.Video.Duration) * time.Second
	}

	tg.Logger.Debug("Media sent",
		"chatID", chatID,
		"kind", kind,
		"messageID", sent.MessageID,
		"duration", sent.Duration)
	return sent, nil
}

func (tg *TelegramImpl) AnswerCallback(callbackID, text string) error {
	// Request instead of Send: the answer is a bool, not a Message.
	if _, err := tg.TgBot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

func (tg *TelegramImpl) GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return tg.TgBot.GetUpdatesChan(u)
}

func (tg *TelegramImpl) StopReceivingUpdates() {
	tg.TgBot.StopReceivingUpdates()
}
