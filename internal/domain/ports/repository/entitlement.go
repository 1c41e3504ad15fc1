package repository

import (
	"context"
	"time"

	"telegram-course-store/internal/domain/model"
)

type EntitlementRepository interface {
	// Grant inserts the (user, course) row with insert-if-absent semantics.
	// A conflict with an existing row is not an error: it returns
	// granted=false, which callers treat as "already granted".
	Grant(ctx context.Context, tx Tx, userID int64, courseID string, at time.Time) (granted bool, err error)
	Exists(ctx context.Context, tx Tx, userID int64, courseID string) (bool, error)
	// Revoke deletes the row if present; deleting an absent row is a no-op.
	Revoke(ctx context.Context, tx Tx, userID int64, courseID string) error
	ListByUser(ctx context.Context, tx Tx, userID int64) ([]*model.Entitlement, error)
	SetFavorite(ctx context.Context, tx Tx, userID int64, courseID string, favorite bool) error
}
