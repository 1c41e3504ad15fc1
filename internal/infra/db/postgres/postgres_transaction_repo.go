package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-course-store/internal/domain"
	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const txColumns = `id, user_id, course_id, payment_id, amount, currency, status, type, notify_message_id, created_at`

func (r *transactionRepo) Insert(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO transactions (id, user_id, course_id, payment_id, amount, currency, status, type, notify_message_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`
	_, err = ex.Exec(ctx, q, t.ID, t.UserID, t.CourseID, t.PaymentID, t.Amount, t.Currency, t.Status, t.Type, t.NotifyMessageID, t.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

// MarkCaptured is the order->capture reconciliation step: the pending row
// created at order time (payment_id = order id) becomes the success row,
// its payment id replaced with the capture id. Matching only pending rows
// keeps the update safe under webhook redelivery.
func (r *transactionRepo) MarkCaptured(ctx context.Context, tx repository.Tx, userID int64, courseID, orderID, captureID string, amount int64, currency string) (*model.Transaction, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE transactions
   SET status=$5, payment_id=$6, amount=$7, currency=$8
 WHERE user_id=$1 AND course_id=$2 AND payment_id=$3 AND status=$4 AND type=$9
RETURNING ` + txColumns + `;`
	t := &model.Transaction{}
	err = scanTransaction(ex.QueryRow(ctx, q,
		userID, courseID, orderID, model.TransactionStatusPending,
		model.TransactionStatusSuccess, captureID, amount, currency, model.TransactionTypePurchase,
	), t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // no pending row to reconcile
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

func (r *transactionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID int64, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + txColumns + ` FROM transactions WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := ex.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t := new(model.Transaction)
		if err := scanTransaction(rows, t); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionRepo) ExpirePending(ctx context.Context, tx repository.Tx, olderThan time.Time) (int64, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	const q = `
UPDATE transactions SET status=$1
 WHERE status=$2 AND type=$3 AND created_at < $4;`
	tag, err := ex.Exec(ctx, q, model.TransactionStatusFailed, model.TransactionStatusPending, model.TransactionTypePurchase, olderThan)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return tag.RowsAffected(), nil
}

func scanTransaction(row pgx.Row, t *model.Transaction) error {
	return row.Scan(&t.ID, &t.UserID, &t.CourseID, &t.PaymentID, &t.Amount, &t.Currency, &t.Status, &t.Type, &t.NotifyMessageID, &t.CreatedAt)
}
