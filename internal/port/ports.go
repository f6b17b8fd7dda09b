// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

// KeyValueStore is the local persistence accessor: string keys mapped to
// JSON-encoded string values. A missing key is reported with ok=false, never
// as an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes all values or none.
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// SessionCache is a Cache whose entries can be kept alive while in use.
type SessionCache[T any] interface {
	Cache[T]
	Touch(key string) bool
}

// UserStore persists candidates under registeredUsers.
// Find* methods return nil, nil when nothing matches.
type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error)
}

// CompanyStore persists employers under registeredCompanies.
type CompanyStore interface {
	GetCompany(ctx context.Context, id string) (*domain.Company, error)
	FindCompanyByEmail(ctx context.Context, email string) (*domain.Company, error)
	FindCompanyByCNPJ(ctx context.Context, cnpj string) (*domain.Company, error)
	CreateCompany(ctx context.Context, c *domain.Company) error
	UpdateCompany(ctx context.Context, id string, fn func(*domain.Company) error) (*domain.Company, error)
}

// JobStore persists company-published jobs under jobs, newest first.
type JobStore interface {
	ListJobs(ctx context.Context) ([]domain.Job, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	AddJob(ctx context.Context, j *domain.Job) error
	// DeleteJob removes the job after guard approves it.
	DeleteJob(ctx context.Context, id string, guard func(*domain.Job) error) error
}

// CourseStore persists company-authored courses under coursesData.
type CourseStore interface {
	ListCourses(ctx context.Context) ([]domain.Course, error)
	AddCourse(ctx context.Context, c *domain.Course) error
}

// SessionMarkers reports the persisted logged-in markers of a client session.
type SessionMarkers interface {
	IsUserLoggedIn(ctx context.Context, sessionID string) (bool, error)
	IsCompanyLoggedIn(ctx context.Context, sessionID string) (bool, error)
}

// SessionLifecycle records each session's expiry and removes the keys of
// expired sessions.
type SessionLifecycle interface {
	SessionMarkers
	OpenSession(ctx context.Context, sessionID string, expiresAt time.Time) error
	// SweepSessions returns how many sessions it removed.
	SweepSessions(ctx context.Context, now time.Time) (int, error)
}

// SessionStore keeps the per-session keys: who is logged in, the course
// being viewed and the pending search term.
type SessionStore interface {
	SessionMarkers
	SetUserSession(ctx context.Context, sessionID, userID string) error
	ClearUserSession(ctx context.Context, sessionID string) error
	SessionUserID(ctx context.Context, sessionID string) (string, error)
	SetCompanySession(ctx context.Context, sessionID, companyID string) error
	ClearCompanySession(ctx context.Context, sessionID string) error
	SessionCompanyID(ctx context.Context, sessionID string) (string, error)
	SetCurrentCourse(ctx context.Context, sessionID string, ref domain.CourseRef) error
	CurrentCourse(ctx context.Context, sessionID string) (*domain.CourseRef, error)
	SetSearchTerm(ctx context.Context, sessionID, term string) error
	// TakeSearchTerm returns the pending term and removes it.
	TakeSearchTerm(ctx context.Context, sessionID string) (string, error)
}

// ApplicationStore keeps a candidate's applications and each job's applicant index.
type ApplicationStore interface {
	Applications(ctx context.Context, userID string) ([]string, error)
	AppliedJobs(ctx context.Context, userID string) ([]domain.AppliedJob, error)
	// RecordApplication reports true when the user had already applied to the job.
	RecordApplication(ctx context.Context, userID string, applied domain.AppliedJob) (bool, error)
	Applicants(ctx context.Context, jobID string) ([]domain.Applicant, error)
	AddApplicant(ctx context.Context, jobID string, a domain.Applicant) error
}

// SnapshotStore moves whole dumps of the key space in and out.
type SnapshotStore interface {
	Export(ctx context.Context) (map[string]string, error)
	Import(ctx context.Context, values map[string]string) (*domain.ImportResult, error)
}

// AddressLookup resolves a Brazilian postal code (CEP) into an address.
type AddressLookup interface {
	LookupCEP(ctx context.Context, cep string) (*domain.CEPAddress, error)
}

// EventPublisher delivers domain events. Implementations must not block the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}
