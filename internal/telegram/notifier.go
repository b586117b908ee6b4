// Package telegram posts complaint activity to the staff Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"smartcampus/backend/internal/models"
)

const queueSize = 64

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// StaffNotifier queues staff messages and sends them from a single
// goroutine, so request handlers never wait on Telegram. A notifier without
// a sender is disabled and drops everything.
type StaffNotifier struct {
	bot    Sender
	chatID int64
	queue  chan tgbotapi.Chattable
	logger *zap.Logger
}

// NewStaffNotifier connects to the Bot API. An empty token yields a
// disabled notifier.
func NewStaffNotifier(token string, chatID int64, logger *zap.Logger) (*StaffNotifier, error) {
	if token == "" {
		logger.Info("Telegram staff notifications disabled")
		return NewStaffNotifierWithSender(nil, 0, logger), nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	logger.Info("Telegram bot authorized", zap.String("account", bot.Self.UserName))
	return NewStaffNotifierWithSender(bot, chatID, logger), nil
}

func NewStaffNotifierWithSender(bot Sender, chatID int64, logger *zap.Logger) *StaffNotifier {
	return &StaffNotifier{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan tgbotapi.Chattable, queueSize),
		logger: logger,
	}
}

// Enabled reports whether messages are actually delivered.
func (n *StaffNotifier) Enabled() bool {
	return n != nil && n.bot != nil
}

// Run sends queued messages until ctx ends.
func (n *StaffNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-n.queue:
			if _, err := n.bot.Send(msg); err != nil {
				n.logger.Warn("Failed to send staff notification", zap.Error(err))
			}
		}
	}
}

// ComplaintCreated announces a complaint that passed moderation.
func (n *StaffNotifier) ComplaintCreated(_ context.Context, c *models.Complaint) error {
	text := fmt.Sprintf("🆕 <b>New complaint</b> [%s]\n<b>%s</b>\n%s\n\nID: <code>%s</code>",
		html.EscapeString(c.Category),
		html.EscapeString(c.Title),
		html.EscapeString(c.Description),
		html.EscapeString(c.ID),
	)
	return n.enqueue(text)
}

// StatusChanged announces a status update made by an admin.
func (n *StaffNotifier) StatusChanged(_ context.Context, c *models.Complaint, by string) error {
	text := fmt.Sprintf("🔄 <b>%s</b> is now <b>%s</b>\nby %s\n\nID: <code>%s</code>",
		html.EscapeString(c.Title),
		html.EscapeString(string(c.Status)),
		html.EscapeString(by),
		html.EscapeString(c.ID),
	)
	return n.enqueue(text)
}

func (n *StaffNotifier) enqueue(text string) error {
	if !n.Enabled() {
		return nil
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	select {
	case n.queue <- msg:
		return nil
	default:
		return fmt.Errorf("staff notification queue full")
	}
}
