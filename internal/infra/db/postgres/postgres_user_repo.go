package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-course-store/internal/domain"
	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, telegram_id, username, first_name, last_name, language_code, created_at, last_seen_at`

func (r *userRepo) Upsert(ctx context.Context, tx repository.Tx, u *model.User) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO users (telegram_id, username, first_name, last_name, language_code)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (telegram_id) DO UPDATE SET
  username=$2, first_name=$3, last_name=$4, language_code=$5, last_seen_at=NOW()
RETURNING ` + userColumns + `;`
	row := ex.QueryRow(ctx, q, u.TelegramID, u.Username, u.FirstName, u.LastName, u.LanguageCode)
	if err := scanUser(row, u); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	return r.findBy(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id)
}

func (r *userRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, telegramID int64) (*model.User, error) {
	return r.findBy(ctx, tx, `SELECT `+userColumns+` FROM users WHERE telegram_id=$1;`, telegramID)
}

func (r *userRepo) findBy(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	if err := scanUser(ex.QueryRow(ctx, q, arg), u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return u, nil
}

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.LanguageCode, &u.CreatedAt, &u.LastSeenAt)
}
