package adapter

import (
	"context"
	"time"

	"telegram-course-store/internal/domain/model"
)

// CourseCache holds entitlement-derived views. It is a pure performance
// layer: the database stays authoritative, every method may fail or the
// whole cache may be dropped without correctness impact, and callers only
// log errors.
type CourseCache interface {
	GetCourses(ctx context.Context, userID int64) ([]*model.Entitlement, bool, error)
	SetCourses(ctx context.Context, userID int64, items []*model.Entitlement) error
	// InvalidateUser drops the user's cached course list and profile.
	InvalidateUser(ctx context.Context, userID int64) error
}

// ReplayGuard deduplicates single-use tokens (the Telegram init-data hash)
// across process restarts.
type ReplayGuard interface {
	// FirstUse marks the key used and reports whether this was the first
	// sighting within the TTL window.
	FirstUse(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
