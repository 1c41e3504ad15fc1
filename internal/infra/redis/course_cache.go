package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/infra/metrics"
)

var _ adapter.CourseCache = (*CourseCache)(nil)

// CourseCache stores entitlement-derived views keyed by user. The database
// stays authoritative; anything here may vanish at any time.
type CourseCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewCourseCache(client RedisClient, ttl time.Duration) *CourseCache {
	return &CourseCache{client: client, ttl: ttl}
}

func coursesKey(userID int64) string { return "user:courses:" + strconv.FormatInt(userID, 10) }
func profileKey(userID int64) string { return "user:profile:" + strconv.FormatInt(userID, 10) }

func (c *CourseCache) GetCourses(ctx context.Context, userID int64) ([]*model.Entitlement, bool, error) {
	data, err := c.client.Get(ctx, coursesKey(userID))
	if err != nil {
		if IsNil(err) {
			metrics.IncCacheRequest("courses", "miss")
			return nil, false, nil
		}
		return nil, false, err
	}
	var items []*model.Entitlement
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		// Treat a stale/corrupt entry as a miss.
		return nil, false, err
	}
	metrics.IncCacheRequest("courses", "hit")
	return items, true, nil
}

func (c *CourseCache) SetCourses(ctx context.Context, userID int64, items []*model.Entitlement) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, coursesKey(userID), data, c.ttl)
}

func (c *CourseCache) InvalidateUser(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, coursesKey(userID), profileKey(userID))
}
