package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/catalog"
	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var enrollmentTracer = otel.Tracer("service/enrollment")

// EnrollmentService copies courses into candidates and tracks their progress.
type EnrollmentService struct {
	users    port.UserStore
	sessions port.SessionStore
	listings listings
	events   port.EventPublisher
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewEnrollmentService(
	users port.UserStore,
	sessions port.SessionStore,
	cat *catalog.Catalog,
	jobs port.JobStore,
	courses port.CourseStore,
	events port.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		users:    users,
		sessions: sessions,
		listings: listings{catalog: cat, jobs: jobs, courses: courses},
		events:   events,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// ============================================================
// Enroll: POST /v1/candidates/me/courses
// ============================================================

// Enroll snapshots a catalog course or a job's bundled course into the
// candidate. Enrolling twice in the same source and id keeps the first copy.
func (s *EnrollmentService) Enroll(ctx context.Context, sessionID string, req *domain.EnrollRequest) (*domain.EnrollResult, error) {
	ctx, span := enrollmentTracer.Start(ctx, "EnrollmentService.Enroll")
	defer span.End()
	span.SetAttributes(attribute.String("course.source", string(req.Source)), attribute.String("course.id", req.ID))

	if !req.Source.Valid() {
		return nil, &domain.ErrValidation{Field: "source", Message: fmt.Sprintf("unknown course source %q", req.Source)}
	}
	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshot(ctx, req)
	if err != nil {
		return nil, err
	}

	already := false
	updated, err := s.users.UpdateUser(ctx, u.ID, func(u *domain.User) error {
		if idx := u.FindCourse(req.Source, req.ID); idx >= 0 {
			already = true
			snapshot = u.Courses[idx]
			return nil
		}
		u.Courses = append(u.Courses, snapshot)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if !already {
		s.metrics.IncrEnrollment(string(req.Source))
		s.events.Publish(ctx, domain.Event{
			Type:       domain.EventCourseEnrolled,
			Key:        req.ID,
			Attributes: map[string]string{"user_id": updated.ID, "source": string(req.Source)},
		})
		s.logger.Info("course enrolled",
			zap.String("user_id", updated.ID),
			zap.String("source", string(req.Source)),
			zap.String("course_id", req.ID),
		)
	}
	return &domain.EnrollResult{Course: snapshot, AlreadyEnrolled: already, Page: "my-courses"}, nil
}

func (s *EnrollmentService) snapshot(ctx context.Context, req *domain.EnrollRequest) (domain.EnrolledCourse, error) {
	now := s.now().UTC()
	if req.Source == domain.SourceJob {
		job, err := s.listings.job(ctx, req.ID)
		if err != nil {
			return domain.EnrolledCourse{}, err
		}
		if !job.HasCourse() {
			return domain.EnrolledCourse{}, &domain.ErrValidation{Field: "id", Message: "esta vaga não possui curso"}
		}
		return domain.EnrollmentFromJob(job, now, s.newID), nil
	}
	course, err := s.listings.course(ctx, req.ID)
	if err != nil {
		return domain.EnrolledCourse{}, err
	}
	return domain.EnrollmentFromCourse(course, now, s.newID), nil
}

// MyCourses lists the candidate's enrollment snapshots.
func (s *EnrollmentService) MyCourses(ctx context.Context, sessionID string) ([]domain.EnrolledCourse, error) {
	ctx, span := enrollmentTracer.Start(ctx, "EnrollmentService.MyCourses")
	defer span.End()

	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}
	if u.Courses == nil {
		return []domain.EnrolledCourse{}, nil
	}
	return u.Courses, nil
}

// ============================================================
// Progress: /v1/candidates/me/courses/{source}/{courseId}/...
// ============================================================

// VideoRef addresses one video inside an enrolled course.
type VideoRef struct {
	Source   domain.CourseSource
	CourseID string
	ModuleID string
	VideoID  string
}

// SetVideoCompleted marks a video done or not done, recomputes the module
// flags and the progress, and persists the result in one update.
func (s *EnrollmentService) SetVideoCompleted(ctx context.Context, sessionID string, ref VideoRef, completed bool) (*domain.EnrolledCourse, error) {
	ctx, span := enrollmentTracer.Start(ctx, "EnrollmentService.SetVideoCompleted")
	defer span.End()
	span.SetAttributes(
		attribute.String("course.id", ref.CourseID),
		attribute.String("video.id", ref.VideoID),
		attribute.Bool("completed", completed),
	)

	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}

	var course domain.EnrolledCourse
	wasCompleted := false
	_, err = s.users.UpdateUser(ctx, u.ID, func(u *domain.User) error {
		idx := u.FindCourse(ref.Source, ref.CourseID)
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "enrolled course", ID: ref.CourseID, Redirect: "my-courses"}
		}
		c := &u.Courses[idx]
		wasCompleted = videoCompleted(c, ref.ModuleID, ref.VideoID)
		if err := c.SetVideoCompleted(ref.ModuleID, ref.VideoID, completed); err != nil {
			return err
		}
		course = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed && !wasCompleted {
		s.metrics.IncrVideoCompletion()
		s.events.Publish(ctx, domain.Event{
			Type: domain.EventVideoCompleted,
			Key:  ref.CourseID,
			Attributes: map[string]string{
				"user_id":  u.ID,
				"video_id": ref.VideoID,
				"progress": fmt.Sprintf("%d", course.Progress),
			},
		})
	}
	s.logger.Debug("video progress updated",
		zap.String("user_id", u.ID),
		zap.String("course_id", ref.CourseID),
		zap.Int("progress", course.Progress),
	)
	return &course, nil
}

func videoCompleted(c *domain.EnrolledCourse, moduleID, videoID string) bool {
	for _, m := range c.ModulesList {
		if m.ID != moduleID {
			continue
		}
		for _, v := range m.Videos {
			if v.ID == videoID {
				return v.Completed
			}
		}
	}
	return false
}
