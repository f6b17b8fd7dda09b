package store

import (
	"context"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

// ListJobs returns the published jobs, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]domain.Job, error) {
	ctx, span := tracer.Start(ctx, "Store.ListJobs")
	defer span.End()

	jobs, _, err := load[[]domain.Job](ctx, s, KeyJobs)
	return jobs, err
}

func (s *Store) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	jobs, err := s.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		if jobs[i].ID == id {
			return &jobs[i], nil
		}
	}
	return nil, nil
}

// AddJob stores j in front of the existing jobs.
func (s *Store) AddJob(ctx context.Context, j *domain.Job) error {
	ctx, span := tracer.Start(ctx, "Store.AddJob")
	defer span.End()

	_, err := update(ctx, s, KeyJobs, func(jobs *[]domain.Job) error {
		for _, existing := range *jobs {
			if existing.ID == j.ID {
				return &domain.ErrConflict{Message: "job id already exists: " + j.ID}
			}
		}
		*jobs = append([]domain.Job{*j}, *jobs...)
		return nil
	})
	return err
}

func (s *Store) DeleteJob(ctx context.Context, id string, guard func(*domain.Job) error) error {
	ctx, span := tracer.Start(ctx, "Store.DeleteJob")
	defer span.End()

	_, err := update(ctx, s, KeyJobs, func(jobs *[]domain.Job) error {
		for i := range *jobs {
			if (*jobs)[i].ID != id {
				continue
			}
			if guard != nil {
				if err := guard(&(*jobs)[i]); err != nil {
					return err
				}
			}
			*jobs = append((*jobs)[:i], (*jobs)[i+1:]...)
			return nil
		}
		return &domain.ErrNotFound{Resource: "job", ID: id}
	})
	if err != nil {
		return err
	}
	return s.remove(ctx, jobKey(id, KeyJobApplicants))
}
