package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/catalog"
	"github.com/boddenberg/jobflow-bfa-go/internal/courseform"
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

var companyTracer = otel.Tracer("service/company")

// DraftKind selects one of the two form drafts of a session.
type DraftKind string

const (
	DraftJob    DraftKind = "job"
	DraftCourse DraftKind = "course"
)

// Workspaces hands out the per-session workspace.
type Workspaces interface {
	Workspace(sessionID string) *Workspace
}

// CompanyService covers the employer side: account, postings, applicants and drafts.
type CompanyService struct {
	companies  port.CompanyStore
	sessions   port.SessionStore
	jobs       port.JobStore
	courses    port.CourseStore
	apps       port.ApplicationStore
	catalog    *catalog.Catalog
	workspaces Workspaces
	events     port.EventPublisher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

func NewCompanyService(
	companies port.CompanyStore,
	sessions port.SessionStore,
	apps port.ApplicationStore,
	cat *catalog.Catalog,
	jobs port.JobStore,
	courses port.CourseStore,
	workspaces Workspaces,
	events port.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		companies:  companies,
		sessions:   sessions,
		jobs:       jobs,
		courses:    courses,
		apps:       apps,
		catalog:    cat,
		workspaces: workspaces,
		events:     events,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// ============================================================
// Register: POST /v1/companies/register
// ============================================================

func (s *CompanyService) Register(ctx context.Context, sessionID string, req *domain.CompanyRegisterRequest) (*domain.SessionLogin, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.Register")
	defer span.End()

	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}
	cnpj := domain.OnlyDigits(req.CNPJ)
	if len(cnpj) != 14 {
		return nil, &domain.ErrValidation{Field: "cnpj", Message: "CNPJ inválido"}
	}
	cep := domain.OnlyDigits(req.CEP)
	if len(cep) != 8 {
		return nil, &domain.ErrValidation{Field: "cep", Message: "CEP inválido"}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome da empresa é obrigatório"}
	}
	email := strings.TrimSpace(req.Email)
	if !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "Email inválido"}
	}
	if req.CompanySize != "" && !domain.ValidCompanySize(req.CompanySize) {
		return nil, &domain.ErrValidation{Field: "companySize", Message: "Porte da empresa inválido"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	c := &domain.Company{
		ID:           s.newID(),
		Name:         name,
		CNPJ:         cnpj,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         domain.RoleCompany,
		Status:       domain.StatusActive,
		PasswordHash: string(hash),
		Address: domain.CompanyAddress{
			Street: strings.TrimSpace(req.Location),
			CEP:    domain.FormatCEP(cep),
			City:   strings.TrimSpace(req.City),
			State:  strings.TrimSpace(req.State),
		},
		Segment:     req.Segment,
		CompanySize: req.CompanySize,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.companies.CreateCompany(ctx, c); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	if err := s.sessions.SetCompanySession(ctx, sessionID, c.ID); err != nil {
		return nil, fmt.Errorf("start company session: %w", err)
	}

	s.logger.Info("company registered",
		zap.String("company_id", c.ID),
		zap.String("cnpj", c.FormattedCNPJ()),
	)
	return &domain.SessionLogin{Role: domain.RoleCompany, ID: c.ID, Name: c.Name, Page: "dashboard"}, nil
}

// ============================================================
// Login / Logout: /v1/companies/login, /v1/companies/logout
// ============================================================

// Login accepts either the e-mail or the CNPJ as identifier.
func (s *CompanyService) Login(ctx context.Context, sessionID string, req *domain.LoginRequest) (*domain.SessionLogin, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.Login")
	defer span.End()

	var (
		c   *domain.Company
		err error
	)
	if req.CNPJ != "" {
		c, err = s.companies.FindCompanyByCNPJ(ctx, req.CNPJ)
	} else {
		c, err = s.companies.FindCompanyByEmail(ctx, strings.TrimSpace(req.Email))
	}
	if err != nil {
		return nil, fmt.Errorf("find company: %w", err)
	}
	if c == nil || bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Warn("company login failed", zap.String("session_id", sessionID))
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}

	if err := s.sessions.SetCompanySession(ctx, sessionID, c.ID); err != nil {
		return nil, fmt.Errorf("start company session: %w", err)
	}
	s.logger.Info("company logged in", zap.String("company_id", c.ID))
	return &domain.SessionLogin{Role: domain.RoleCompany, ID: c.ID, Name: c.Name, Page: "dashboard"}, nil
}

func (s *CompanyService) Logout(ctx context.Context, sessionID string) error {
	ctx, span := companyTracer.Start(ctx, "CompanyService.Logout")
	defer span.End()

	if err := s.sessions.ClearCompanySession(ctx, sessionID); err != nil {
		return fmt.Errorf("clear company session: %w", err)
	}
	s.workspaces.Workspace(sessionID).JobDraft.Reset()
	s.workspaces.Workspace(sessionID).CourseDraft.Reset()
	s.logger.Info("company logged out", zap.String("session_id", sessionID))
	return nil
}

// ============================================================
// Profile: /v1/companies/me
// ============================================================

func (s *CompanyService) Profile(ctx context.Context, sessionID string) (*domain.Company, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.Profile")
	defer span.End()

	c, err := sessionCompany(ctx, s.sessions, s.companies, sessionID)
	if err != nil {
		return nil, err
	}
	pub := c.Public()
	return &pub, nil
}

func (s *CompanyService) UpdateProfile(ctx context.Context, sessionID string, upd *domain.CompanyUpdate) (*domain.Company, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.UpdateProfile")
	defer span.End()

	c, err := sessionCompany(ctx, s.sessions, s.companies, sessionID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(upd.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome da empresa é obrigatório"}
	}
	email := strings.TrimSpace(upd.Email)
	if !strings.Contains(email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "Email inválido"}
	}
	if upd.CompanySize != "" && !domain.ValidCompanySize(upd.CompanySize) {
		return nil, &domain.ErrValidation{Field: "companySize", Message: "Porte da empresa inválido"}
	}
	if !strings.EqualFold(email, c.Email) {
		other, err := s.companies.FindCompanyByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("find company: %w", err)
		}
		if other != nil && other.ID != c.ID {
			return nil, &domain.ErrConflict{Message: "Este email já está cadastrado"}
		}
	}

	updated, err := s.companies.UpdateCompany(ctx, c.ID, func(c *domain.Company) error {
		c.Name = name
		c.Email = email
		c.Phone = upd.Phone
		c.Address = upd.Address
		c.Address.CEP = domain.FormatCEP(upd.Address.CEP)
		c.Segment = upd.Segment
		c.CompanySize = upd.CompanySize
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	s.logger.Info("company profile updated", zap.String("company_id", c.ID))
	pub := updated.Public()
	return &pub, nil
}

// ============================================================
// Jobs: /v1/companies/me/jobs
// ============================================================

// PublishJob stores a new posting for the logged-in company. Inline modules
// take precedence; without them the session's job draft is published and
// then cleared.
func (s *CompanyService) PublishJob(ctx context.Context, sessionID string, req *domain.PublishJobRequest) (*domain.Job, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.PublishJob")
	defer span.End()

	c, err := sessionCompany(ctx, s.sessions, s.companies, sessionID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "Título da vaga é obrigatório"}
	}
	if !req.ContractType.Valid() {
		return nil, &domain.ErrValidation{Field: "contractType", Message: fmt.Sprintf("tipo de contrato inválido: %s", req.ContractType)}
	}
	if !req.WorkMode.Valid() {
		return nil, &domain.ErrValidation{Field: "workMode", Message: fmt.Sprintf("modalidade inválida: %s", req.WorkMode)}
	}

	draft := s.workspaces.Workspace(sessionID).JobDraft
	var (
		modules []domain.Module
		taken   []courseform.ModuleDraft
	)
	if req.Modules != nil {
		modules = courseform.FromModules(req.Modules).Build(s.newID)
	} else {
		modules, taken = draft.Take(s.newID)
	}

	job := &domain.Job{
		ID:           s.newID(),
		CompanyID:    c.ID,
		Company:      c.Name,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		Requirements: strings.TrimSpace(req.Requirements),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Salary:       strings.TrimSpace(req.Salary),
		ContractType: req.ContractType,
		WorkMode:     req.WorkMode,
		Skills:       cleanList(req.Skills),
		Benefits:     cleanList(req.Benefits),
		Status:       domain.JobStatusOpen,
		Modules:      modules,
		CreatedAt:    s.now().UTC(),
	}
	if job.City == "" && job.State == "" {
		job.City = domain.DefaultJobLocation
	}
	if job.Salary == "" {
		job.Salary = domain.DefaultJobSalary
	}
	if len(job.Modules) == 0 {
		job.Modules = nil
	}

	if err := s.jobs.AddJob(ctx, job); err != nil {
		if req.Modules == nil {
			draft.Restore(taken)
		}
		return nil, fmt.Errorf("add job: %w", err)
	}

	s.metrics.IncrJobPublished()
	s.events.Publish(ctx, domain.Event{
		Type:       domain.EventJobPublished,
		Key:        job.ID,
		Attributes: map[string]string{"company_id": c.ID, "title": job.Title},
	})
	span.SetAttributes(attribute.String("job.id", job.ID))
	s.logger.Info("job published",
		zap.String("company_id", c.ID),
		zap.String("job_id", job.ID),
		zap.Int("modules", len(job.Modules)),
	)
	return job, nil
}

// DeleteJob removes one of the company's own postings. Catalog postings belong
// to nobody and cannot be removed.
func (s *CompanyService) DeleteJob(ctx context.Context, sessionID, jobID string) error {
	ctx, span := companyTracer.Start(ctx, "CompanyService.DeleteJob")
	defer span.End()
	span.SetAttributes(attribute.String("job.id", jobID))

	c, err := sessionCompany(ctx, s.sessions, s.companies, sessionID)
	if err != nil {
		return err
	}

	err = s.jobs.DeleteJob(ctx, jobID, func(j *domain.Job) error {
		if j.CompanyID != c.ID {
			return &domain.ErrForbidden{Action: "delete job " + jobID}
		}
		return nil
	})
	if isNotFound(err) {
		if _, ok := s.catalog.Job(jobID); ok {
			return &domain.ErrForbidden{Action: "delete catalog job " + jobID}
		}
	}
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	s.events.Publish(ctx, domain.Event{
		Type:       domain.EventJobDeleted,
		Key:        jobID,
		Attributes: map[string]string{"company_id": c.ID},
	})
	s.logger.Info("job deleted", zap.String("company_id", c.ID), zap.String("job_id", jobID))
	return nil
}

// Jobs lists the postings of the logged-in company, newest first.
func (s *CompanyService) Jobs(ctx context.Context, sessionID string) ([]domain.Job, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.Jobs")
	defer span.End()

	c, err := sessionCompany(ctx, s.sessions, s.companies, sessionID)
	if err != nil {
		return nil, err
	}
	all, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	own := make([]domain.Job, 0, len(all))
	for _, j := range all {
		if j.CompanyID == c.ID {
			own = append(own, j)
		}
	}
	return own, nil
}

// Applicants groups the applicants of every posting of the company.
func (s *CompanyService) Applicants(ctx context.Context, sessionID string) ([]domain.JobApplicants, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.Applicants")
	defer span.End()

	jobs, err := s.Jobs(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.JobApplicants, len(jobs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range jobs {
		i := i
		g.Go(func() error {
			applicants, err := s.apps.Applicants(gCtx, jobs[i].ID)
			if err != nil {
				return fmt.Errorf("load applicants of %s: %w", jobs[i].ID, err)
			}
			if applicants == nil {
				applicants = []domain.Applicant{}
			}
			out[i] = domain.JobApplicants{Job: jobs[i], Applicants: applicants}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// JobApplicants returns the applicants of one of the company's postings.
func (s *CompanyService) JobApplicants(ctx context.Context, sessionID, jobID string) (*domain.JobApplicants, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.JobApplicants")
	defer span.End()

	c, err := sessionCompany(ctx, s.sessions, s.companies, sessionID)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		return nil, &domain.ErrNotFound{Resource: "job", ID: jobID}
	}
	if job.CompanyID != c.ID {
		return nil, &domain.ErrForbidden{Action: "view applicants of job " + jobID}
	}
	applicants, err := s.apps.Applicants(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load applicants: %w", err)
	}
	if applicants == nil {
		applicants = []domain.Applicant{}
	}
	return &domain.JobApplicants{Job: *job, Applicants: applicants}, nil
}

// ============================================================
// Drafts: /v1/companies/me/drafts/{kind}
// ============================================================

func (s *CompanyService) draft(ctx context.Context, sessionID string, kind DraftKind) (*courseform.Editor, error) {
	if _, err := sessionCompany(ctx, s.sessions, s.companies, sessionID); err != nil {
		return nil, err
	}
	ws := s.workspaces.Workspace(sessionID)
	switch kind {
	case DraftJob:
		return ws.JobDraft, nil
	case DraftCourse:
		return ws.CourseDraft, nil
	}
	return nil, &domain.ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown draft %q", kind)}
}

// DraftView is a draft together with its running duration.
type DraftView struct {
	Modules      []courseform.ModuleDraft `json:"modules"`
	TotalMinutes int                      `json:"totalMinutes"`
	Duration     string                   `json:"duration"`
}

func viewOf(e *courseform.Editor) *DraftView {
	total := e.TotalMinutes()
	return &DraftView{Modules: e.Modules(), TotalMinutes: total, Duration: domain.FormatMinutes(total)}
}

func (s *CompanyService) Draft(ctx context.Context, sessionID string, kind DraftKind) (*DraftView, error) {
	e, err := s.draft(ctx, sessionID, kind)
	if err != nil {
		return nil, err
	}
	return viewOf(e), nil
}

// EditDraft applies a batch of edits atomically.
func (s *CompanyService) EditDraft(ctx context.Context, sessionID string, kind DraftKind, reqs []courseform.EditRequest) (*DraftView, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.EditDraft")
	defer span.End()
	span.SetAttributes(attribute.String("draft.kind", string(kind)), attribute.Int("draft.edits", len(reqs)))

	e, err := s.draft(ctx, sessionID, kind)
	if err != nil {
		return nil, err
	}
	edits, err := courseform.Edits(reqs)
	if err != nil {
		return nil, err
	}
	if _, err := e.Apply(edits...); err != nil {
		return nil, err
	}
	return viewOf(e), nil
}

func (s *CompanyService) ResetDraft(ctx context.Context, sessionID string, kind DraftKind) error {
	e, err := s.draft(ctx, sessionID, kind)
	if err != nil {
		return err
	}
	e.Reset()
	return nil
}

// ============================================================
// Courses: POST /v1/companies/me/courses
// ============================================================

// PublishCourse turns the session's course draft into a catalog course.
func (s *CompanyService) PublishCourse(ctx context.Context, sessionID string, req *domain.PublishCourseRequest) (*domain.Course, error) {
	ctx, span := companyTracer.Start(ctx, "CompanyService.PublishCourse")
	defer span.End()

	c, err := sessionCompany(ctx, s.sessions, s.companies, sessionID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "Título do curso é obrigatório"}
	}

	draft := s.workspaces.Workspace(sessionID).CourseDraft
	modules, taken := draft.Take(s.newID)
	if len(modules) == 0 {
		draft.Restore(taken)
		return nil, &domain.ErrValidation{Field: "modules", Message: "Adicione pelo menos um módulo ao curso"}
	}

	instructor := strings.TrimSpace(req.Instructor)
	if instructor == "" {
		instructor = domain.DefaultInstructor
	}
	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = "Online"
	}
	course := &domain.Course{
		ID:          s.newID(),
		CompanyID:   c.ID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Duration:    domain.FormatMinutes(domain.TotalMinutes(modules)),
		Modules:     len(modules),
		Mode:        mode,
		Instructor:  instructor,
		Skills:      cleanList(req.Skills),
		Price:       strings.TrimSpace(req.Price),
		ModulesList: modules,
	}
	if err := s.courses.AddCourse(ctx, course); err != nil {
		draft.Restore(taken)
		return nil, fmt.Errorf("add course: %w", err)
	}

	s.events.Publish(ctx, domain.Event{
		Type:       domain.EventCoursePublished,
		Key:        course.ID,
		Attributes: map[string]string{"company_id": c.ID, "title": course.Title},
	})
	s.logger.Info("course published",
		zap.String("company_id", c.ID),
		zap.String("course_id", course.ID),
		zap.Int("modules", course.Modules),
	)
	return course, nil
}

// cleanList trims entries and drops the empty ones.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
