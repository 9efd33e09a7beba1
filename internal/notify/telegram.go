// Package notify delivers risk verdicts and trading decisions over Telegram.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/internal/format"
	"github.com/Alias1177/WalletAdvisor/models"
)

// Sender is the part of the bot API the notifier uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends notifications to a single chat
type Telegram struct {
	sender Sender
	chatID int64
	logger zerolog.Logger
}

// NewTelegramBot creates the bot client
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return bot, nil
}

// NewTelegram creates a notifier for chatID
func NewTelegram(sender Sender, chatID int64) *Telegram {
	return &Telegram{
		sender: sender,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}
}

// NotifyAssessment sends a risk verdict
func (t *Telegram) NotifyAssessment(ctx context.Context, account string, a models.RiskAssessment) error {
	return t.send(ctx, format.AssessmentMessage(account, a))
}

// NotifyDecision sends a trading decision
func (t *Telegram) NotifyDecision(ctx context.Context, s models.Strategy, d models.TradingDecision) error {
	return t.send(ctx, format.DecisionMessage(s, d))
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.sender.Send(msg); err != nil {
		t.logger.Error().Err(err).Int64("chat_id", t.chatID).Msg("Failed to send message")
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}
