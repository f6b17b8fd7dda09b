package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/catalog"
	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

var candidateTracer = otel.Tracer("service/candidate")

// CandidateService covers the candidate side: account, profile and applying to jobs.
type CandidateService struct {
	users    port.UserStore
	sessions port.SessionStore
	apps     port.ApplicationStore
	listings listings
	events   port.EventPublisher
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewCandidateService(
	users port.UserStore,
	sessions port.SessionStore,
	apps port.ApplicationStore,
	cat *catalog.Catalog,
	jobs port.JobStore,
	events port.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CandidateService {
	return &CandidateService{
		users:    users,
		sessions: sessions,
		apps:     apps,
		listings: listings{catalog: cat, jobs: jobs},
		events:   events,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// ============================================================
// Register: POST /v1/candidates/register
// ============================================================

func (s *CandidateService) Register(ctx context.Context, sessionID string, req *domain.CandidateRegisterRequest) (*domain.SessionLogin, error) {
	ctx, span := candidateTracer.Start(ctx, "CandidateService.Register")
	defer span.End()

	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome é obrigatório"}
	}
	email := strings.TrimSpace(req.Email)
	if !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "Email inválido"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	address := req.Address
	address.CEP = domain.FormatCEP(address.CEP)
	u := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		Role:         domain.RoleCandidate,
		Status:       domain.StatusActive,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(req.Phone),
		Location:     strings.TrimSpace(req.Location),
		Address:      address,
		Resume:       req.Resume,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.sessions.SetUserSession(ctx, sessionID, u.ID); err != nil {
		return nil, fmt.Errorf("start user session: %w", err)
	}

	s.logger.Info("candidate registered", zap.String("user_id", u.ID))
	return &domain.SessionLogin{Role: domain.RoleCandidate, ID: u.ID, Name: u.Name, Page: "profile"}, nil
}

func validatePassword(password, confirm string) error {
	if password != confirm {
		return &domain.ErrValidation{Field: "confirmPassword", Message: "As senhas não coincidem"}
	}
	if len(password) < domain.MinPasswordLength {
		return &domain.ErrValidation{Field: "password", Message: "A senha deve ter pelo menos 6 caracteres"}
	}
	return nil
}

// ============================================================
// Login / Logout: /v1/candidates/login, /v1/candidates/logout
// ============================================================

func (s *CandidateService) Login(ctx context.Context, sessionID string, req *domain.LoginRequest) (*domain.SessionLogin, error) {
	ctx, span := candidateTracer.Start(ctx, "CandidateService.Login")
	defer span.End()

	u, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Warn("candidate login failed", zap.String("session_id", sessionID))
		return nil, &domain.ErrUnauthorized{Message: "Email ou senha inválidos"}
	}

	if err := s.sessions.SetUserSession(ctx, sessionID, u.ID); err != nil {
		return nil, fmt.Errorf("start user session: %w", err)
	}
	s.logger.Info("candidate logged in", zap.String("user_id", u.ID))
	return &domain.SessionLogin{Role: domain.RoleCandidate, ID: u.ID, Name: u.Name, Page: "profile"}, nil
}

func (s *CandidateService) Logout(ctx context.Context, sessionID string) error {
	ctx, span := candidateTracer.Start(ctx, "CandidateService.Logout")
	defer span.End()

	if err := s.sessions.ClearUserSession(ctx, sessionID); err != nil {
		return fmt.Errorf("clear user session: %w", err)
	}
	s.logger.Info("candidate logged out", zap.String("session_id", sessionID))
	return nil
}

// ============================================================
// Profile: /v1/candidates/me
// ============================================================

// Overview loads the candidate together with their applications.
func (s *CandidateService) Overview(ctx context.Context, sessionID string) (*domain.ProfileOverview, error) {
	ctx, span := candidateTracer.Start(ctx, "CandidateService.Overview")
	defer span.End()

	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	var (
		applications []string
		appliedJobs  []domain.AppliedJob
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		applications, err = s.apps.Applications(gCtx, u.ID)
		if err != nil {
			return fmt.Errorf("load applications: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		appliedJobs, err = s.apps.AppliedJobs(gCtx, u.ID)
		if err != nil {
			return fmt.Errorf("load applied jobs: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load profile overview", zap.String("user_id", u.ID), zap.Error(err))
		return nil, err
	}

	if applications == nil {
		applications = []string{}
	}
	if appliedJobs == nil {
		appliedJobs = []domain.AppliedJob{}
	}
	courses := u.Courses
	if courses == nil {
		courses = []domain.EnrolledCourse{}
	}
	return &domain.ProfileOverview{
		User:         u.Public(),
		Applications: applications,
		AppliedJobs:  appliedJobs,
		Courses:      courses,
	}, nil
}

func (s *CandidateService) UpdateProfile(ctx context.Context, sessionID string, upd *domain.ProfileUpdate) (*domain.User, error) {
	ctx, span := candidateTracer.Start(ctx, "CandidateService.UpdateProfile")
	defer span.End()

	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(upd.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome é obrigatório"}
	}

	updated, err := s.users.UpdateUser(ctx, u.ID, func(u *domain.User) error {
		u.Name = name
		u.Phone = upd.Phone
		u.Location = upd.Location
		u.Bio = upd.Bio
		u.Skills = upd.Skills
		u.Address = upd.Address
		u.Address.CEP = domain.FormatCEP(upd.Address.CEP)
		u.Education = upd.Education
		u.Experience = upd.Experience
		u.Competencies = upd.Competencies
		u.Languages = upd.Languages
		u.Interests = upd.Interests
		if upd.Resume != nil {
			u.Resume = upd.Resume
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("candidate profile updated", zap.String("user_id", u.ID))
	pub := updated.Public()
	return &pub, nil
}

// SetResume records the metadata of the uploaded curriculum.
func (s *CandidateService) SetResume(ctx context.Context, sessionID string, resume domain.Resume) (*domain.User, error) {
	ctx, span := candidateTracer.Start(ctx, "CandidateService.SetResume")
	defer span.End()

	if strings.TrimSpace(resume.Name) == "" {
		return nil, &domain.ErrValidation{Field: "resume.name", Message: "Arquivo do currículo é obrigatório"}
	}
	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateUser(ctx, u.ID, func(u *domain.User) error {
		u.Resume = &resume
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	pub := updated.Public()
	return &pub, nil
}

// ============================================================
// Apply: POST /v1/jobs/{jobId}/apply
// ============================================================

// Apply records the candidate's application. The company name is kept once
// in the applications list and the job snapshot once per job.
func (s *CandidateService) Apply(ctx context.Context, sessionID, jobID string) (*domain.ApplyResult, error) {
	ctx, span := candidateTracer.Start(ctx, "CandidateService.Apply")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}
	if u.Resume == nil {
		return nil, &domain.ErrValidation{
			Field:    "resume",
			Message:  "Por favor, atualize seu perfil e adicione seu currículo antes de se candidatar.",
			Redirect: "profile",
		}
	}

	job, err := s.listings.job(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	already, err := s.apps.RecordApplication(ctx, u.ID, domain.AppliedJob{Job: job.Clone(), AppliedAt: now})
	if err != nil {
		return nil, fmt.Errorf("record application: %w", err)
	}
	applicant := domain.Applicant{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Skills:    u.Skills,
		Resume:    u.Resume,
		AppliedAt: now,
	}
	if err := s.apps.AddApplicant(ctx, job.ID, applicant); err != nil {
		return nil, fmt.Errorf("add applicant: %w", err)
	}

	if !already {
		s.metrics.IncrApplication()
		s.events.Publish(ctx, domain.Event{
			Type: domain.EventApplicationSubmitted,
			Key:  job.ID,
			Attributes: map[string]string{
				"user_id": u.ID,
				"company": job.Company,
			},
		})
		s.logger.Info("application submitted",
			zap.String("user_id", u.ID),
			zap.String("job_id", job.ID),
			zap.String("company", job.Company),
		)
	}

	return &domain.ApplyResult{JobID: job.ID, Company: job.Company, AlreadyApplied: already, Page: "profile"}, nil
}
