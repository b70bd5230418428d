package notifier

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/semmidev/mongovault/internal/config"
)

type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	now    func() time.Time
}

func NewTelegram(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	return newTelegram(cfg, tgbotapi.APIEndpoint)
}

func newTelegram(cfg config.TelegramConfig, endpoint string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.BotToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.ChatID,
		now:    time.Now,
	}, nil
}

func (t *TelegramNotifier) NotifySuccess(_ context.Context, project, location string) error {
	message := fmt.Sprintf(
		"✅ Backup Uploaded\n\n"+
			"📁 Project: %s\n"+
			"📍 Location: %s\n"+
			"🕐 Time: %s",
		project,
		location,
		t.now().Format("2006-01-02 15:04:05"),
	)
	return t.send(message)
}

func (t *TelegramNotifier) NotifyFailure(_ context.Context, project string, cause error) error {
	message := fmt.Sprintf(
		"❌ Backup Failed\n\n"+
			"📁 Project: %s\n"+
			"💥 Error: %v\n"+
			"🕐 Time: %s",
		project,
		cause,
		t.now().Format("2006-01-02 15:04:05"),
	)
	return t.send(message)
}

func (t *TelegramNotifier) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}
