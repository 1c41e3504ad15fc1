package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/repository"
)

var _ UserUseCase = (*userUC)(nil)

type UserUseCase interface {
	// EnsureUser upserts the Telegram profile and returns the internal user.
	EnsureUser(ctx context.Context, profile model.TelegramProfile) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	l := logger.With().Str("component", "UserUC").Logger()
	return &userUC{users: users, log: &l}
}

func (u *userUC) EnsureUser(ctx context.Context, profile model.TelegramProfile) (*model.User, error) {
	user := &model.User{
		TelegramID:   profile.ID,
		Username:     profile.Username,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		LanguageCode: profile.LanguageCode,
	}
	if err := u.users.Upsert(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUC) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, id)
}
