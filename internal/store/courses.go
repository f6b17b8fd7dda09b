package store

import (
	"context"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

// ListCourses returns the company-authored courses in publishing order.
func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	courses, _, err := load[[]domain.Course](ctx, s, KeyCoursesData)
	return courses, err
}

func (s *Store) AddCourse(ctx context.Context, c *domain.Course) error {
	ctx, span := tracer.Start(ctx, "Store.AddCourse")
	defer span.End()

	_, err := update(ctx, s, KeyCoursesData, func(courses *[]domain.Course) error {
		*courses = append(*courses, *c)
		return nil
	})
	return err
}
