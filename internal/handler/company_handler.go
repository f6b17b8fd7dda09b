package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/jobflow-bfa-go/internal/courseform"
	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 6. Companies: /v1/companies
// ============================================================

func companyRegisterHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/register")
		defer span.End()

		var req domain.CompanyRegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Register(ctx, SessionIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

func companyLoginHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/login")
		defer span.End()

		var req domain.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Login(ctx, SessionIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func companyLogoutHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/logout")
		defer span.End()

		if err := svc.Logout(ctx, SessionIDFromContext(ctx)); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Sessão encerrada", Page: "home"})
	}
}

func companyProfileHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/me")
		defer span.End()

		company, err := svc.Profile(ctx, SessionIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, company)
	}
}

func companyUpdateHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/companies/me")
		defer span.End()

		var req domain.CompanyUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		company, err := svc.UpdateProfile(ctx, SessionIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, company)
	}
}

func companyJobsHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/me/jobs")
		defer span.End()

		jobs, err := svc.Jobs(ctx, SessionIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
	}
}

func publishJobHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/me/jobs")
		defer span.End()

		var req domain.PublishJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		job, err := svc.PublishJob(ctx, SessionIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, job)
	}
}

func deleteJobHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/companies/me/jobs/{jobId}")
		defer span.End()

		jobID := chi.URLParam(r, "jobId")
		span.SetAttributes(attribute.String("job.id", jobID))

		if err := svc.DeleteJob(ctx, SessionIDFromContext(ctx), jobID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Vaga excluída", ID: jobID})
	}
}

func applicantsHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/me/applicants")
		defer span.End()

		resp, err := svc.Applicants(ctx, SessionIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"jobs": resp})
	}
}

func jobApplicantsHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/me/jobs/{jobId}/applicants")
		defer span.End()

		resp, err := svc.JobApplicants(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "jobId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func publishCourseHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/me/courses")
		defer span.End()

		var req domain.PublishCourseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		course, err := svc.PublishCourse(ctx, SessionIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, course)
	}
}

// ============================================================
// 7. Drafts: /v1/companies/me/drafts/{kind}
// ============================================================

func getDraftHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies/me/drafts/{kind}")
		defer span.End()

		kind := service.DraftKind(chi.URLParam(r, "kind"))
		view, err := svc.Draft(ctx, SessionIDFromContext(ctx), kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// editDraftHandler accepts {"edits": [...]} and applies the whole batch or nothing.
func editDraftHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/companies/me/drafts/{kind}")
		defer span.End()

		var req struct {
			Edits []courseform.EditRequest `json:"edits"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		kind := service.DraftKind(chi.URLParam(r, "kind"))
		view, err := svc.EditDraft(ctx, SessionIDFromContext(ctx), kind, req.Edits)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

func resetDraftHandler(svc *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/companies/me/drafts/{kind}")
		defer span.End()

		kind := service.DraftKind(chi.URLParam(r, "kind"))
		if err := svc.ResetDraft(ctx, SessionIDFromContext(ctx), kind); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
