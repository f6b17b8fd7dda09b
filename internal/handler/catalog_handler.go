package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/jobflow-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 3. Catalog: /v1/jobs, /v1/courses
// ============================================================

func listQuery(r *http.Request) service.ListQuery {
	return service.ListQuery{Search: r.URL.Query().Get("search"), Page: parsePage(r)}
}

func listJobsHandler(cat *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/jobs")
		defer span.End()

		resp, err := cat.ListJobs(ctx, SessionIDFromContext(ctx), listQuery(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cat *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/jobs/{jobId}")
		defer span.End()

		jobID := chi.URLParam(r, "jobId")
		span.SetAttributes(attribute.String("job.id", jobID))

		job, err := cat.GetJob(ctx, jobID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, job)
	}
}

func saveSearchTermHandler(cat *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/search-term")
		defer span.End()

		var req struct {
			Term string `json:"term"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := cat.SaveSearchTerm(ctx, SessionIDFromContext(ctx), req.Term)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listCoursesHandler(cat *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/courses")
		defer span.End()

		resp, err := cat.ListCourses(ctx, SessionIDFromContext(ctx), listQuery(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getCourseHandler(cat *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/courses/{courseId}")
		defer span.End()

		course, err := cat.GetCourse(ctx, chi.URLParam(r, "courseId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, course)
	}
}
