package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/jobflow-bfa-go/internal/catalog"
	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"
)

// listings merges the embedded catalog with what companies published.
// Published entries come first.
type listings struct {
	catalog *catalog.Catalog
	jobs    port.JobStore
	courses port.CourseStore
}

func (l listings) allJobs(ctx context.Context) ([]domain.Job, error) {
	stored, err := l.jobs.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored jobs: %w", err)
	}
	return append(stored, l.catalog.Jobs()...), nil
}

func (l listings) job(ctx context.Context, id string) (*domain.Job, error) {
	stored, err := l.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get stored job: %w", err)
	}
	if stored != nil {
		return stored, nil
	}
	if j, ok := l.catalog.Job(id); ok {
		return &j, nil
	}
	return nil, &domain.ErrNotFound{Resource: "job", ID: id, Redirect: "jobs"}
}

func (l listings) allCourses(ctx context.Context) ([]domain.Course, error) {
	stored, err := l.courses.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored courses: %w", err)
	}
	return append(stored, l.catalog.Courses()...), nil
}

func (l listings) course(ctx context.Context, id string) (*domain.Course, error) {
	stored, err := l.courses.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored courses: %w", err)
	}
	for i := range stored {
		if stored[i].ID == id {
			return &stored[i], nil
		}
	}
	if c, ok := l.catalog.Course(id); ok {
		return &c, nil
	}
	return nil, &domain.ErrNotFound{Resource: "course", ID: id, Redirect: "courses"}
}
