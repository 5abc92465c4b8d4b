package services

import (
	"fmt"
	"html"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService relays notifications to one operator chat.
type TelegramService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramService returns nil, nil when the bot is not configured; a nil
// *TelegramService skips every send.
func NewTelegramService(botToken string, chatID int64) (*TelegramService, error) {
	if botToken == "" || chatID == 0 {
		log.Printf("[tg][skip] token or chatID empty (token? %v chatID=%d)", botToken != "", chatID)
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Printf("[tg] authorized as @%s", bot.Self.UserName)
	return &TelegramService{bot: bot, chatID: chatID}, nil
}

func (t *TelegramService) SendMessage(text string) error {
	if t == nil || t.bot == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	return nil
}

// Relay formats a notification line for the operator chat.
func (t *TelegramService) Relay(userID int64, kind, message string) error {
	return t.SendMessage(fmt.Sprintf("<b>%s</b> user #%d\n%s",
		html.EscapeString(kind), userID, html.EscapeString(message)))
}
