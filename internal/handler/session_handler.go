package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/jobflow-bfa-go/internal/navigation"
	"github.com/boddenberg/jobflow-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 1. Sessions: POST /v1/sessions
// ============================================================

func openSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sessions")
		defer span.End()

		resp, err := sessions.Open(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

// ============================================================
// 2. Navigation
// ============================================================

// navigateRequest selects the target page. JobID and CourseID pick the
// listing entry shown on the details pages.
type navigateRequest struct {
	Page     string `json:"page"`
	JobID    string `json:"jobId,omitempty"`
	CourseID string `json:"courseId,omitempty"`
}

func navigationStateHandler(sessions *service.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessions.State(SessionIDFromContext(r.Context())))
	}
}

func navigateHandler(sessions *service.SessionService, cat *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/navigation")
		defer span.End()

		var req navigateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("page", req.Page))

		var payload *navigation.Payload
		if req.JobID != "" || req.CourseID != "" {
			payload = &navigation.Payload{}
			if req.JobID != "" {
				job, err := cat.GetJob(ctx, req.JobID)
				if err != nil {
					handleServiceError(w, err, logger)
					return
				}
				payload.Job = job
			}
			if req.CourseID != "" {
				course, err := cat.GetCourse(ctx, req.CourseID)
				if err != nil {
					handleServiceError(w, err, logger)
					return
				}
				payload.Course = course
			}
		}

		state, err := sessions.Navigate(ctx, SessionIDFromContext(ctx), req.Page, payload)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, state)
	}
}

func navigateBackHandler(sessions *service.SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessions.Back(SessionIDFromContext(r.Context())))
	}
}
