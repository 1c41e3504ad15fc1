package repository

import (
	"context"

	"telegram-course-store/internal/domain/model"
)

// CourseCatalog is the read-only content store (filesystem + YAML metadata).
// Course material itself is out of scope here; the catalog only answers
// existence and metadata questions for the purchase flow.
type CourseCatalog interface {
	Find(ctx context.Context, id string) (*model.Course, error)
	List(ctx context.Context) ([]*model.Course, error)
}
