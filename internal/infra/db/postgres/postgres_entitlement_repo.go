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

var _ repository.EntitlementRepository = (*entitlementRepo)(nil)

type entitlementRepo struct{ pool *pgxpool.Pool }

func NewEntitlementRepo(pool *pgxpool.Pool) *entitlementRepo {
	return &entitlementRepo{pool: pool}
}

// Grant relies on the (user_id, course_id) primary key: a conflicting insert
// affects zero rows and is reported as granted=false, which is the atomicity
// unit the duplicate-grant check depends on.
func (r *entitlementRepo) Grant(ctx context.Context, tx repository.Tx, userID int64, courseID string, at time.Time) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	const q = `
INSERT INTO user_courses (user_id, course_id, purchased_at)
VALUES ($1,$2,$3)
ON CONFLICT (user_id, course_id) DO NOTHING;`
	tag, err := ex.Exec(ctx, q, userID, courseID, at)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() > 0, nil
}

func (r *entitlementRepo) Exists(ctx context.Context, tx repository.Tx, userID int64, courseID string) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	const q = `SELECT EXISTS (SELECT 1 FROM user_courses WHERE user_id=$1 AND course_id=$2);`
	var exists bool
	if err := ex.QueryRow(ctx, q, userID, courseID).Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *entitlementRepo) Revoke(ctx context.Context, tx repository.Tx, userID int64, courseID string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	// Deleting an absent row is a no-op, not an error.
	const q = `DELETE FROM user_courses WHERE user_id=$1 AND course_id=$2;`
	if _, err := ex.Exec(ctx, q, userID, courseID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *entitlementRepo) ListByUser(ctx context.Context, tx repository.Tx, userID int64) ([]*model.Entitlement, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const q = `
SELECT user_id, course_id, is_favorite, purchased_at
FROM user_courses WHERE user_id=$1 ORDER BY purchased_at DESC;`
	rows, err := ex.Query(ctx, q, userID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Entitlement
	for rows.Next() {
		e := new(model.Entitlement)
		if err := rows.Scan(&e.UserID, &e.CourseID, &e.Favorite, &e.PurchasedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *entitlementRepo) SetFavorite(ctx context.Context, tx repository.Tx, userID int64, courseID string, favorite bool) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `UPDATE user_courses SET is_favorite=$3 WHERE user_id=$1 AND course_id=$2;`
	tag, err := ex.Exec(ctx, q, userID, courseID, favorite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
