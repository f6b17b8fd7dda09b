package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/jobflow-bfa-go/internal/catalog"
	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var catalogTracer = otel.Tracer("service/catalog")

// ListQuery filters and pages a listing. Page is 1-based.
type ListQuery struct {
	Search string
	Page   int
}

// JobListing is one page of jobs plus the term it was filtered by.
type JobListing struct {
	domain.ListResponse[domain.Job]
	Search string `json:"search"`
}

// CourseListing is one page of courses plus the term it was filtered by.
type CourseListing struct {
	domain.ListResponse[domain.Course]
	Search string `json:"search"`
}

// CatalogService lists and opens jobs and courses.
type CatalogService struct {
	listings       listings
	sessions       port.SessionStore
	users          port.UserStore
	jobsPerPage    int
	coursesPerPage int
	logger         *zap.Logger
}

func NewCatalogService(
	cat *catalog.Catalog,
	jobs port.JobStore,
	courses port.CourseStore,
	sessions port.SessionStore,
	users port.UserStore,
	jobsPerPage, coursesPerPage int,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		listings:       listings{catalog: cat, jobs: jobs, courses: courses},
		sessions:       sessions,
		users:          users,
		jobsPerPage:    jobsPerPage,
		coursesPerPage: coursesPerPage,
		logger:         logger,
	}
}

// takeSearch consumes the session's pending search term. An explicit term wins.
func (s *CatalogService) takeSearch(ctx context.Context, sessionID, explicit string) (string, error) {
	pending, err := s.sessions.TakeSearchTerm(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("take search term: %w", err)
	}
	if term := strings.TrimSpace(explicit); term != "" {
		return term, nil
	}
	return pending, nil
}

// ============================================================
// Jobs: GET /v1/jobs
// ============================================================

func (s *CatalogService) ListJobs(ctx context.Context, sessionID string, q ListQuery) (*JobListing, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListJobs")
	defer span.End()

	term, err := s.takeSearch(ctx, sessionID, q.Search)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("search", term))

	all, err := s.listings.allJobs(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Job, 0, len(all))
	for i := range all {
		if all[i].Matches(term) {
			matched = append(matched, all[i])
		}
	}
	return &JobListing{ListResponse: domain.Paginate(matched, q.Page, s.jobsPerPage), Search: term}, nil
}

func (s *CatalogService) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.GetJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", id))

	return s.listings.job(ctx, id)
}

// SaveSearchTerm leaves a term for the next listing of this session.
func (s *CatalogService) SaveSearchTerm(ctx context.Context, sessionID, term string) (*domain.SuccessResponse, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.SaveSearchTerm")
	defer span.End()

	if err := s.sessions.SetSearchTerm(ctx, sessionID, term); err != nil {
		return nil, fmt.Errorf("save search term: %w", err)
	}
	return &domain.SuccessResponse{Message: "search term saved", Page: "jobs"}, nil
}

// ============================================================
// Courses: GET /v1/courses
// ============================================================

func (s *CatalogService) ListCourses(ctx context.Context, sessionID string, q ListQuery) (*CourseListing, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListCourses")
	defer span.End()

	term, err := s.takeSearch(ctx, sessionID, q.Search)
	if err != nil {
		return nil, err
	}

	all, err := s.listings.allCourses(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Course, 0, len(all))
	for i := range all {
		if all[i].Matches(term) {
			matched = append(matched, all[i])
		}
	}
	return &CourseListing{ListResponse: domain.Paginate(matched, q.Page, s.coursesPerPage), Search: term}, nil
}

func (s *CatalogService) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.GetCourse")
	defer span.End()
	span.SetAttributes(attribute.String("course.id", id))

	return s.listings.course(ctx, id)
}

// ============================================================
// Course content: /v1/candidates/me/course-content
// ============================================================

// OpenCourseContent marks one of the candidate's enrolled courses as the one
// being watched in this session.
func (s *CatalogService) OpenCourseContent(ctx context.Context, sessionID string, ref domain.CourseRef) (*domain.EnrolledCourse, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.OpenCourseContent")
	defer span.End()

	if !ref.Source.Valid() {
		return nil, &domain.ErrValidation{Field: "source", Message: fmt.Sprintf("unknown course source %q", ref.Source)}
	}
	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}
	idx := u.FindCourse(ref.Source, ref.ID)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "enrolled course", ID: ref.ID, Redirect: "my-courses"}
	}
	if err := s.sessions.SetCurrentCourse(ctx, sessionID, ref); err != nil {
		return nil, fmt.Errorf("set current course: %w", err)
	}
	return &u.Courses[idx], nil
}

// CourseContent returns the course opened with OpenCourseContent. Without one
// the client is sent back to my-courses.
func (s *CatalogService) CourseContent(ctx context.Context, sessionID string) (*domain.EnrolledCourse, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CourseContent")
	defer span.End()

	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}
	ref, err := s.sessions.CurrentCourse(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read current course: %w", err)
	}
	if ref == nil {
		s.logger.Debug("no current course", zap.String("session_id", sessionID))
		return nil, &domain.ErrNotFound{Resource: "current course", ID: sessionID, Redirect: "my-courses"}
	}
	idx := u.FindCourse(ref.Source, ref.ID)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "enrolled course", ID: ref.ID, Redirect: "my-courses"}
	}
	return &u.Courses[idx], nil
}
