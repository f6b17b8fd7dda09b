package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/boddenberg/jobflow-bfa-go/internal/courseform"
	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/service"
)

func TestCompanyRegister_Validation(t *testing.T) {
	e := newEnv(t)
	sid := e.openSession(t)

	base := domain.CompanyRegisterRequest{
		Name: "Acme", CNPJ: "12.345.678/0001-90", Email: "rh@acme.com",
		Password: "segredo1", ConfirmPassword: "segredo1", CEP: "01310-100",
	}
	tests := []struct {
		name    string
		mutate  func(r *domain.CompanyRegisterRequest)
		message string
	}{
		{"mismatch", func(r *domain.CompanyRegisterRequest) { r.ConfirmPassword = "x" }, "As senhas não coincidem"},
		{"short", func(r *domain.CompanyRegisterRequest) { r.Password, r.ConfirmPassword = "123", "123" }, "A senha deve ter pelo menos 6 caracteres"},
		{"cnpj", func(r *domain.CompanyRegisterRequest) { r.CNPJ = "123" }, "CNPJ inválido"},
		{"cep", func(r *domain.CompanyRegisterRequest) { r.CEP = "0131" }, "CEP inválido"},
		{"size", func(r *domain.CompanyRegisterRequest) { r.CompanySize = "Gigante" }, "Porte da empresa inválido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := e.companies.Register(context.Background(), sid, &req)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if validation.Message != tt.message {
				t.Errorf("expected %q, got %q", tt.message, validation.Message)
			}
		})
	}
}

func TestCompanyRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	login := e.registerCompany(t, e.openSession(t), "Acme", "12.345.678/0001-90", "rh@acme.com")
	if login.Page != "dashboard" {
		t.Errorf("expected dashboard, got %s", login.Page)
	}

	c, err := e.store.GetCompany(ctx, login.ID)
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if c.CNPJ != "12345678000190" || c.Address.CEP != "01310-100" {
		t.Errorf("unexpected stored company: %+v", c)
	}

	_, err = e.companies.Register(ctx, e.openSession(t), &domain.CompanyRegisterRequest{
		Name: "Acme 2", CNPJ: "12345678000190", Email: "outro@acme.com",
		Password: "segredo1", ConfirmPassword: "segredo1", CEP: "01310100",
	})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) || conflict.Message != "CNPJ já cadastrado" {
		t.Fatalf("expected CNPJ conflict, got %v", err)
	}

	sid := e.openSession(t)
	if _, err := e.companies.Login(ctx, sid, &domain.LoginRequest{CNPJ: "12345678000190", Password: "segredo1"}); err != nil {
		t.Fatalf("login by cnpj: %v", err)
	}
	if _, err := e.companies.Login(ctx, sid, &domain.LoginRequest{Email: "RH@acme.com", Password: "segredo1"}); err != nil {
		t.Fatalf("login by email: %v", err)
	}
	if _, err := e.companies.Login(ctx, sid, &domain.LoginRequest{Email: "rh@acme.com", Password: "nope"}); err == nil {
		t.Fatal("expected wrong password to fail")
	}

	profile, err := e.companies.Profile(ctx, sid)
	if err != nil || profile.PasswordHash != "" {
		t.Fatalf("unexpected profile: %+v %v", profile, err)
	}

	if err := e.companies.Logout(ctx, sid); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err = e.companies.Profile(ctx, sid)
	if domain.RedirectOf(err) != "login-company" {
		t.Fatalf("expected redirect to login-company, got %v", err)
	}
}

func TestPublishJob_InlineModules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sid := e.openSession(t)
	e.registerCompany(t, sid, "Acme", "12345678000190", "rh@acme.com")

	job, err := e.companies.PublishJob(ctx, sid, &domain.PublishJobRequest{
		Title:  "Frontend",
		Skills: []string{"React"},
		Modules: []domain.Module{
			{Title: "M1", Videos: []domain.Video{{Title: "V1", Duration: "10:00"}}},
		},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	stored, err := e.store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored job")
	}
	if !reflect.DeepEqual(stored.Skills, []string{"React"}) {
		t.Errorf("expected skills [React], got %v", stored.Skills)
	}
	if len(stored.Modules) != 1 || stored.Modules[0].Title != "M1" {
		t.Fatalf("expected one module M1, got %+v", stored.Modules)
	}
	if v := stored.Modules[0].Videos; len(v) != 1 || v[0].Title != "V1" || v[0].Duration != "10:00" {
		t.Errorf("unexpected videos: %+v", v)
	}
	if stored.Company != "Acme" || stored.City != domain.DefaultJobLocation || stored.Salary != domain.DefaultJobSalary {
		t.Errorf("unexpected defaults: %+v", stored)
	}
	if got := e.metrics.Summary().JobsPublished; got != 1 {
		t.Errorf("expected one published job, got %d", got)
	}
	if got := len(e.events.ofType(domain.EventJobPublished)); got != 1 {
		t.Errorf("expected one event, got %d", got)
	}
}

func TestPublishJob_FromDraft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sid := e.openSession(t)
	e.registerCompany(t, sid, "Acme", "12345678000190", "rh@acme.com")

	view, err := e.companies.EditDraft(ctx, sid, service.DraftJob, []courseform.EditRequest{
		{Op: courseform.OpAppendModule},
		{Op: courseform.OpUpdateModuleTitle, Module: 0, Value: "M1"},
		{Op: courseform.OpAppendVideo, Module: 0},
		{Op: courseform.OpUpdateVideo, Module: 0, Video: 0, Field: courseform.FieldTitle, Value: "V1"},
		{Op: courseform.OpUpdateVideo, Module: 0, Video: 0, Field: courseform.FieldDuration, Value: "10:00"},
	})
	if err != nil {
		t.Fatalf("edit draft: %v", err)
	}
	if view.TotalMinutes != 10 || view.Duration != "10 minutos" {
		t.Errorf("unexpected draft view: %+v", view)
	}

	job, err := e.companies.PublishJob(ctx, sid, &domain.PublishJobRequest{Title: "Frontend", Skills: []string{"React"}})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(job.Modules) != 1 || job.Modules[0].Videos[0].Duration != "10:00" {
		t.Fatalf("expected draft modules, got %+v", job.Modules)
	}

	view, err = e.companies.Draft(ctx, sid, service.DraftJob)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if len(view.Modules) != 0 {
		t.Error("expected draft to be cleared after publishing")
	}
}

func TestPublishJob_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sid := e.openSession(t)

	_, err := e.companies.PublishJob(ctx, sid, &domain.PublishJobRequest{Title: "x"})
	if domain.RedirectOf(err) != "login-company" {
		t.Fatalf("expected login redirect, got %v", err)
	}

	e.registerCompany(t, sid, "Acme", "12345678000190", "rh@acme.com")
	for _, req := range []domain.PublishJobRequest{
		{Title: " "},
		{Title: "x", ContractType: "Freela"},
		{Title: "x", WorkMode: "Lua"},
	} {
		var validation *domain.ErrValidation
		if _, err := e.companies.PublishJob(ctx, sid, &req); !errors.As(err, &validation) {
			t.Errorf("%+v: expected ErrValidation, got %v", req, err)
		}
	}
}

func TestEditDraft_FailedBatchKeepsDraft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sid := e.openSession(t)
	e.registerCompany(t, sid, "Acme", "12345678000190", "rh@acme.com")

	if _, err := e.companies.EditDraft(ctx, sid, service.DraftCourse, []courseform.EditRequest{{Op: courseform.OpAppendModule}}); err != nil {
		t.Fatalf("EditDraft: %v", err)
	}
	_, err := e.companies.EditDraft(ctx, sid, service.DraftCourse, []courseform.EditRequest{
		{Op: courseform.OpAppendModule},
		{Op: courseform.OpRemoveVideo, Module: 0, Video: 0},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	view, err := e.companies.Draft(ctx, sid, service.DraftCourse)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if len(view.Modules) != 1 {
		t.Fatalf("expected draft untouched, got %+v", view.Modules)
	}

	if _, err := e.companies.Draft(ctx, sid, "quiz"); err == nil {
		t.Fatal("expected unknown draft kind to fail")
	}
}

func TestDeleteJob(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	acme := e.openSession(t)
	e.registerCompany(t, acme, "Acme", "12345678000190", "rh@acme.com")
	other := e.openSession(t)
	e.registerCompany(t, other, "Other", "98765432000110", "rh@other.com")

	job, err := e.companies.PublishJob(ctx, acme, &domain.PublishJobRequest{Title: "Backend"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	var forbidden *domain.ErrForbidden
	if err := e.companies.DeleteJob(ctx, other, job.ID); !errors.As(err, &forbidden) {
		t.Fatalf("expected ErrForbidden for foreign job, got %v", err)
	}
	if err := e.companies.DeleteJob(ctx, acme, "1"); !errors.As(err, &forbidden) {
		t.Fatalf("expected ErrForbidden for catalog job, got %v", err)
	}
	var notFound *domain.ErrNotFound
	if err := e.companies.DeleteJob(ctx, acme, "missing"); !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := e.companies.DeleteJob(ctx, acme, job.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	jobs, err := e.companies.Jobs(ctx, acme)
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
	if got := len(e.events.ofType(domain.EventJobDeleted)); got != 1 {
		t.Errorf("expected one delete event, got %d", got)
	}
}

func TestApplicants(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	company := e.openSession(t)
	e.registerCompany(t, company, "Acme", "12345678000190", "rh@acme.com")
	job, err := e.companies.PublishJob(ctx, company, &domain.PublishJobRequest{Title: "Backend"})
	if err != nil {
		t.Fatalf("PublishJob: %v", err)
	}
	if _, err := e.companies.PublishJob(ctx, company, &domain.PublishJobRequest{Title: "Frontend"}); err != nil {
		t.Fatalf("PublishJob: %v", err)
	}

	candidate := e.openSession(t)
	e.registerCandidate(t, candidate, "maria@example.com", true)
	if _, err := e.candidates.Apply(ctx, candidate, job.ID); err != nil {
		t.Fatalf("apply: %v", err)
	}

	all, err := e.companies.Applicants(ctx, company)
	if err != nil {
		t.Fatalf("applicants: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two postings, got %d", len(all))
	}
	counts := map[string]int{}
	for _, ja := range all {
		counts[ja.Job.Title] = len(ja.Applicants)
	}
	if counts["Backend"] != 1 || counts["Frontend"] != 0 {
		t.Errorf("unexpected applicant counts: %v", counts)
	}

	one, err := e.companies.JobApplicants(ctx, company, job.ID)
	if err != nil || len(one.Applicants) != 1 || one.Applicants[0].Email != "maria@example.com" {
		t.Fatalf("unexpected job applicants: %+v %v", one, err)
	}

	other := e.openSession(t)
	e.registerCompany(t, other, "Other", "98765432000110", "rh@other.com")
	var forbidden *domain.ErrForbidden
	if _, err := e.companies.JobApplicants(ctx, other, job.ID); !errors.As(err, &forbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPublishCourse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sid := e.openSession(t)
	e.registerCompany(t, sid, "Acme", "12345678000190", "rh@acme.com")

	_, err := e.companies.PublishCourse(ctx, sid, &domain.PublishCourseRequest{Title: "Go"})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation for empty draft, got %v", err)
	}

	_, err = e.companies.EditDraft(ctx, sid, service.DraftCourse, []courseform.EditRequest{
		{Op: courseform.OpAppendModule},
		{Op: courseform.OpUpdateModuleTitle, Value: "Básico"},
		{Op: courseform.OpAppendVideo},
		{Op: courseform.OpUpdateVideo, Field: courseform.FieldDuration, Value: "12:30"},
		{Op: courseform.OpAppendVideo},
		{Op: courseform.OpUpdateVideo, Video: 1, Field: courseform.FieldDuration, Value: "8"},
	})
	if err != nil {
		t.Fatalf("edit draft: %v", err)
	}

	course, err := e.companies.PublishCourse(ctx, sid, &domain.PublishCourseRequest{Title: "Go"})
	if err != nil {
		t.Fatalf("publish course: %v", err)
	}
	if course.Instructor != domain.DefaultInstructor || course.Duration != "20 minutos" || course.Modules != 1 {
		t.Errorf("unexpected course: %+v", course)
	}

	got, err := e.catalog.GetCourse(ctx, course.ID)
	if err != nil || got.Title != "Go" {
		t.Fatalf("expected course in catalog listing, got %+v %v", got, err)
	}
}

func TestUpdateCompanyProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.registerCompany(t, e.openSession(t), "Other", "98765432000110", "rh@other.com")
	sid := e.openSession(t)
	e.registerCompany(t, sid, "Acme", "12345678000190", "rh@acme.com")

	_, err := e.companies.UpdateProfile(ctx, sid, &domain.CompanyUpdate{Name: "Acme", Email: "rh@other.com"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	c, err := e.companies.UpdateProfile(ctx, sid, &domain.CompanyUpdate{
		Name:    "Acme Ltda",
		Email:   "contato@acme.com",
		Address: domain.CompanyAddress{CEP: "01310100", City: "São Paulo"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if c.Name != "Acme Ltda" || c.Address.CEP != "01310-100" || c.CNPJ != "12345678000190" {
		t.Errorf("unexpected company: %+v", c)
	}
}
