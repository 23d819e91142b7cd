package telegram

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/insta-story-player/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=telegram.go -destination=mocks/mock.go

// SentMedia describes a story item delivered to a chat.
type SentMedia struct {
	MessageID int
	// Duration is the video length Telegram reported, zero for photos.
	Duration time.Duration
}

type Client interface {
	GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()

	SendMessage(chatID int64, text string) (int, error)
	SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (int, error)
	EditMessageText(chatID int64, messageID int, text string) error
	EditMessageWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
	SendMedia(chatID int64, kind domain.MediaKind, url, caption string) (*SentMedia, error)
	AnswerCallback(callbackID, text string) error

	SendMessageToUser(message string)
}
