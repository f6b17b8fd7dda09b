package store

import (
	"context"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

// Applications lists the company names the user applied to, without repeats.
func (s *Store) Applications(ctx context.Context, userID string) ([]string, error) {
	names, _, err := load[[]string](ctx, s, userKey(userID, KeyApplications))
	return names, err
}

func (s *Store) AppliedJobs(ctx context.Context, userID string) ([]domain.AppliedJob, error) {
	jobs, _, err := load[[]domain.AppliedJob](ctx, s, userKey(userID, KeyUserApplications))
	return jobs, err
}

// RecordApplication adds the job snapshot once per job id and the company
// name once per company.
func (s *Store) RecordApplication(ctx context.Context, userID string, applied domain.AppliedJob) (bool, error) {
	ctx, span := tracer.Start(ctx, "Store.RecordApplication")
	defer span.End()

	already := false
	_, err := update(ctx, s, userKey(userID, KeyUserApplications), func(jobs *[]domain.AppliedJob) error {
		for _, j := range *jobs {
			if j.Job.ID == applied.Job.ID {
				already = true
				return nil
			}
		}
		*jobs = append(*jobs, applied)
		return nil
	})
	if err != nil {
		return false, err
	}

	_, err = update(ctx, s, userKey(userID, KeyApplications), func(names *[]string) error {
		for _, n := range *names {
			if n == applied.Job.Company {
				return nil
			}
		}
		*names = append(*names, applied.Job.Company)
		return nil
	})
	return already, err
}

func (s *Store) Applicants(ctx context.Context, jobID string) ([]domain.Applicant, error) {
	applicants, _, err := load[[]domain.Applicant](ctx, s, jobKey(jobID, KeyJobApplicants))
	return applicants, err
}

// AddApplicant replaces an earlier entry of the same user.
func (s *Store) AddApplicant(ctx context.Context, jobID string, a domain.Applicant) error {
	_, err := update(ctx, s, jobKey(jobID, KeyJobApplicants), func(applicants *[]domain.Applicant) error {
		for i := range *applicants {
			if (*applicants)[i].UserID == a.UserID {
				(*applicants)[i] = a
				return nil
			}
		}
		*applicants = append(*applicants, a)
		return nil
	})
	return err
}
