package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/domain/ports/repository"
)

var _ CourseUseCase = (*courseUC)(nil)

// OwnedCourse joins an entitlement with its catalog metadata.
type OwnedCourse struct {
	Course      *model.Course      `json:"course"`
	Entitlement *model.Entitlement `json:"entitlement"`
}

type CourseUseCase interface {
	Catalog(ctx context.Context) ([]*model.Course, error)
	// Owned lists the user's courses, cache-aside over the entitlement table.
	Owned(ctx context.Context, userID int64) ([]*OwnedCourse, error)
	SetFavorite(ctx context.Context, userID int64, courseID string, favorite bool) error
}

type courseUC struct {
	catalog      repository.CourseCatalog
	entitlements repository.EntitlementRepository
	cache        adapter.CourseCache
	log          *zerolog.Logger
}

func NewCourseUseCase(
	catalog repository.CourseCatalog,
	entitlements repository.EntitlementRepository,
	cache adapter.CourseCache,
	logger *zerolog.Logger,
) *courseUC {
	l := logger.With().Str("component", "CourseUC").Logger()
	return &courseUC{catalog: catalog, entitlements: entitlements, cache: cache, log: &l}
}

func (u *courseUC) Catalog(ctx context.Context) ([]*model.Course, error) {
	return u.catalog.List(ctx)
}

func (u *courseUC) Owned(ctx context.Context, userID int64) ([]*OwnedCourse, error) {
	items, hit, err := u.cache.GetCourses(ctx, userID)
	if err != nil {
		u.log.Warn().Err(err).Int64("user_id", userID).Msg("course cache read failed")
	}
	if !hit {
		items, err = u.entitlements.ListByUser(ctx, repository.NoTX, userID)
		if err != nil {
			return nil, err
		}
		if cerr := u.cache.SetCourses(ctx, userID, items); cerr != nil {
			u.log.Warn().Err(cerr).Int64("user_id", userID).Msg("course cache write failed")
		}
	}

	out := make([]*OwnedCourse, 0, len(items))
	for _, e := range items {
		course, err := u.catalog.Find(ctx, e.CourseID)
		if err != nil {
			// Entitlement to a course missing from the content dir:
			// keep serving the rest, flag for content repair.
			u.log.Error().Err(err).Int64("user_id", userID).Str("course_id", e.CourseID).Msg("owned course missing from catalog")
			continue
		}
		out = append(out, &OwnedCourse{Course: course, Entitlement: e})
	}
	return out, nil
}

func (u *courseUC) SetFavorite(ctx context.Context, userID int64, courseID string, favorite bool) error {
	if err := u.entitlements.SetFavorite(ctx, repository.NoTX, userID, courseID, favorite); err != nil {
		return err
	}
	if err := u.cache.InvalidateUser(ctx, userID); err != nil {
		u.log.Warn().Err(err).Int64("user_id", userID).Msg("cache invalidation failed")
	}
	return nil
}
