package repository

import (
	"context"
	"time"

	"telegram-course-store/internal/domain/model"
)

type TransactionRepository interface {
	Insert(ctx context.Context, tx Tx, t *model.Transaction) error
	// MarkCaptured transitions the pending purchase row matched by
	// (user, course, payment_id = orderID) to success, replacing its
	// payment id with the capture id and recording the captured
	// amount/currency. Returns the updated row, or nil when no pending
	// row matched (callers fall back to inserting a fresh success row).
	MarkCaptured(ctx context.Context, tx Tx, userID int64, courseID, orderID, captureID string, amount int64, currency string) (*model.Transaction, error)
	ListByUser(ctx context.Context, tx Tx, userID int64, limit int) ([]*model.Transaction, error)
	// ExpirePending marks purchase rows still pending from before the cutoff
	// as failed and returns how many rows were touched.
	ExpirePending(ctx context.Context, tx Tx, olderThan time.Time) (int64, error)
}

// WebhookEventRepository is an audit log of provider deliveries keyed by the
// provider event id. Recording is insert-if-absent and best-effort; it is
// never used as a processing gate.
type WebhookEventRepository interface {
	Record(ctx context.Context, tx Tx, eventID, eventType string, at time.Time) error
}
