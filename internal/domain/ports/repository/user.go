package repository

import (
	"context"

	"telegram-course-store/internal/domain/model"
)

type UserRepository interface {
	// Upsert inserts the user keyed by Telegram id or refreshes the profile
	// fields of an existing row, filling in the internal ID either way.
	Upsert(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.User, error)
	FindByTelegramID(ctx context.Context, tx Tx, telegramID int64) (*model.User, error)
}
