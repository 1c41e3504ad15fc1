package adapter

import "context"

// Courier delivers user-facing messages about purchase state changes.
// All of it is best-effort: callers log failures and never let them roll
// back or fail the state change that triggered the message.
type Courier interface {
	// SendPurchaseProcessing tells the user their payment is being
	// processed and returns the message id for later editing.
	SendPurchaseProcessing(ctx context.Context, telegramID int64, courseTitle string) (messageID int, err error)
	SendPurchaseConfirmation(ctx context.Context, telegramID int64, courseTitle string) (messageID int, err error)
	// EditToConfirmation rewrites a previously sent processing message
	// into the confirmation.
	EditToConfirmation(ctx context.Context, telegramID int64, messageID int, courseTitle string) error
	SendRefundNotice(ctx context.Context, telegramID int64, courseTitle string) error
}
