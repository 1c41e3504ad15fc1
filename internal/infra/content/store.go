package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"telegram-course-store/internal/domain"
	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/repository"
)

var _ repository.CourseCatalog = (*Store)(nil)

// Store serves course metadata from a content directory: one subdirectory
// per course, holding a course.yaml. Files are read per lookup; the catalog
// is small and the OS page cache does the heavy lifting.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Find(ctx context.Context, id string) (*model.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validCourseID(id) {
		return nil, fmt.Errorf("%w: course id %q", domain.ErrInvalidArgument, id)
	}
	return s.load(id)
}

func (s *Store) List(ctx context.Context) ([]*model.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}
	var out []*model.Course
	for _, e := range entries {
		if !e.IsDir() || !validCourseID(e.Name()) {
			continue
		}
		c, err := s.load(e.Name())
		if err != nil || c.Hidden {
			continue // directories without valid metadata are not courses
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) load(id string) (*model.Course, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, id, "course.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read course %s: %w", id, err)
	}
	var c model.Course
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse course %s: %w", id, err)
	}
	if c.Title == "" || c.Price <= 0 || c.Currency == "" {
		return nil, fmt.Errorf("%w: course %s metadata incomplete", domain.ErrInvalidArgument, id)
	}
	c.ID = id
	c.Currency = strings.ToUpper(c.Currency)
	return &c, nil
}

// validCourseID mirrors the custom-id pattern so every sellable course can
// round-trip through provider order metadata.
func validCourseID(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' && i > 0:
		default:
			return false
		}
	}
	return true
}
