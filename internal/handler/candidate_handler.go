package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 4. Candidates: /v1/candidates
// ============================================================

func candidateRegisterHandler(svc *service.CandidateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/candidates/register")
		defer span.End()

		var req domain.CandidateRegisterRequest
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

func candidateLoginHandler(svc *service.CandidateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/candidates/login")
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

func candidateLogoutHandler(svc *service.CandidateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/candidates/logout")
		defer span.End()

		if err := svc.Logout(ctx, SessionIDFromContext(ctx)); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Sessão encerrada", Page: "home"})
	}
}

func candidateOverviewHandler(svc *service.CandidateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/candidates/me")
		defer span.End()

		resp, err := svc.Overview(ctx, SessionIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func candidateUpdateHandler(svc *service.CandidateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/candidates/me")
		defer span.End()

		var req domain.ProfileUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.UpdateProfile(ctx, SessionIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func candidateResumeHandler(svc *service.CandidateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/candidates/me/resume")
		defer span.End()

		var req domain.Resume
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.SetResume(ctx, SessionIDFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func applyHandler(svc *service.CandidateService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/jobs/{jobId}/apply")
		defer span.End()

		jobID := chi.URLParam(r, "jobId")
		span.SetAttributes(attribute.String("job.id", jobID))

		resp, err := svc.Apply(ctx, SessionIDFromContext(ctx), jobID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// 5. Enrollments: /v1/candidates/me/courses
// ============================================================

func myCoursesHandler(svc *service.EnrollmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/candidates/me/courses")
		defer span.End()

		courses, err := svc.MyCourses(ctx, SessionIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
	}
}

func enrollHandler(svc *service.EnrollmentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/candidates/me/courses")
		defer span.End()

		var req domain.EnrollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Enroll(ctx, SessionIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		status := http.StatusCreated
		if resp.AlreadyEnrolled {
			status = http.StatusOK
		}
		writeJSON(w, status, resp)
	}
}

func videoCompleteHandler(svc *service.EnrollmentService, completed bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" /v1/candidates/me/courses/{source}/{courseId}/modules/{moduleId}/videos/{videoId}/complete")
		defer span.End()

		ref := service.VideoRef{
			Source:   domain.CourseSource(chi.URLParam(r, "source")),
			CourseID: chi.URLParam(r, "courseId"),
			ModuleID: chi.URLParam(r, "moduleId"),
			VideoID:  chi.URLParam(r, "videoId"),
		}
		if !ref.Source.Valid() {
			writeError(w, http.StatusBadRequest, "source must be catalog or job")
			return
		}

		course, err := svc.SetVideoCompleted(ctx, SessionIDFromContext(ctx), ref, completed)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, course)
	}
}

func openCourseContentHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/candidates/me/course-content")
		defer span.End()

		var ref domain.CourseRef
		if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		course, err := svc.OpenCourseContent(ctx, SessionIDFromContext(ctx), ref)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, course)
	}
}

func courseContentHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/candidates/me/course-content")
		defer span.End()

		course, err := svc.CourseContent(ctx, SessionIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, course)
	}
}
