package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/infra/metrics"
)

var _ adapter.Courier = (*Courier)(nil)

// Courier sends purchase lifecycle messages through the Telegram Bot API.
// Every call site treats a returned error as log-only; a failed message
// never affects the state change that triggered it.
type Courier struct {
	bot *tgbotapi.BotAPI
}

func NewCourier(token string) (*Courier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Courier{bot: bot}, nil
}

func (c *Courier) SendPurchaseProcessing(ctx context.Context, telegramID int64, courseTitle string) (int, error) {
	id, err := c.send(ctx, telegramID, fmt.Sprintf("⏳ Processing your payment for “%s”…", courseTitle))
	metrics.IncNotification("processing", err == nil)
	return id, err
}

func (c *Courier) SendPurchaseConfirmation(ctx context.Context, telegramID int64, courseTitle string) (int, error) {
	id, err := c.send(ctx, telegramID, confirmationText(courseTitle))
	metrics.IncNotification("confirmation", err == nil)
	return id, err
}

func (c *Courier) EditToConfirmation(ctx context.Context, telegramID int64, messageID int, courseTitle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(telegramID, messageID, confirmationText(courseTitle))
	_, err := c.bot.Send(edit)
	metrics.IncNotification("confirmation", err == nil)
	if err != nil {
		return fmt.Errorf("telegram edit message %d: %w", messageID, err)
	}
	return nil
}

func (c *Courier) SendRefundNotice(ctx context.Context, telegramID int64, courseTitle string) error {
	_, err := c.send(ctx, telegramID, fmt.Sprintf("↩️ Your payment for “%s” was refunded. Access has been revoked.", courseTitle))
	metrics.IncNotification("refund", err == nil)
	return err
}

// send wraps bot.Send, which is not context-aware; we only honor
// cancellation before dispatch.
func (c *Courier) send(ctx context.Context, telegramID int64, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(telegramID, text)
	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("telegram send to %d: %w", telegramID, err)
	}
	return sent.MessageID, nil
}

func confirmationText(courseTitle string) string {
	return fmt.Sprintf("✅ Payment received! “%s” is now in your courses.", courseTitle)
}
