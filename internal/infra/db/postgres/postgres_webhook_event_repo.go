package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-course-store/internal/domain"
	"telegram-course-store/internal/domain/ports/repository"
)

var _ repository.WebhookEventRepository = (*webhookEventRepo)(nil)

// webhookEventRepo keeps the delivery audit trail used for out-of-band
// reconciliation. It never gates processing.
type webhookEventRepo struct{ pool *pgxpool.Pool }

func NewWebhookEventRepo(pool *pgxpool.Pool) *webhookEventRepo {
	return &webhookEventRepo{pool: pool}
}

func (r *webhookEventRepo) Record(ctx context.Context, tx repository.Tx, eventID, eventType string, at time.Time) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO webhook_events (event_id, event_type, received_at)
VALUES ($1,$2,$3)
ON CONFLICT (event_id) DO NOTHING;`
	if _, err := ex.Exec(ctx, q, eventID, eventType, at); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
