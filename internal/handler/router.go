package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
	"github.com/boddenberg/jobflow-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the application services exposed over HTTP.
// Import may be nil, in which case the admin routes are not mounted.
type Services struct {
	Sessions    *service.SessionService
	Candidates  *service.CandidateService
	Companies   *service.CompanyService
	Catalog     *service.CatalogService
	Enrollments *service.EnrollmentService
	Address     *service.AddressService
	Import      *service.ImportService
}

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, store Pinger, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Sessions
		// POST /v1/sessions
		// =============================================
		r.Post("/sessions", openSessionHandler(svc.Sessions, logger))

		// =============================================
		// Public catalog details and address lookup
		// =============================================
		r.Get("/jobs/{jobId}", getJobHandler(svc.Catalog, logger))
		r.Get("/courses/{courseId}", getCourseHandler(svc.Catalog, logger))
		r.Get("/address/{cep}", addressLookupHandler(svc.Address, logger))
		r.Get("/metrics/summary", metricsSummaryHandler(metrics))

		// Everything below belongs to a client session.
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(svc.Sessions, logger))

			// =============================================
			// 2. Navigation
			// GET  /v1/navigation
			// POST /v1/navigation
			// POST /v1/navigation/back
			// =============================================
			r.Get("/navigation", navigationStateHandler(svc.Sessions))
			r.Post("/navigation", navigateHandler(svc.Sessions, svc.Catalog, logger))
			r.Post("/navigation/back", navigateBackHandler(svc.Sessions))

			// =============================================
			// 3. Catalog listings
			// =============================================
			r.Get("/jobs", listJobsHandler(svc.Catalog, logger))
			r.Get("/courses", listCoursesHandler(svc.Catalog, logger))
			r.Post("/search-term", saveSearchTermHandler(svc.Catalog, logger))

			// =============================================
			// 4. Candidates
			// =============================================
			r.Post("/candidates/register", candidateRegisterHandler(svc.Candidates, logger))
			r.Post("/candidates/login", candidateLoginHandler(svc.Candidates, logger))
			r.Post("/candidates/logout", candidateLogoutHandler(svc.Candidates, logger))
			r.Get("/candidates/me", candidateOverviewHandler(svc.Candidates, logger))
			r.Put("/candidates/me", candidateUpdateHandler(svc.Candidates, logger))
			r.Put("/candidates/me/resume", candidateResumeHandler(svc.Candidates, logger))
			r.Post("/candidates/me/address/{cep}", addressPrefillHandler(svc.Address, logger))
			r.Post("/jobs/{jobId}/apply", applyHandler(svc.Candidates, logger))

			// =============================================
			// 5. Enrollments and course content
			// =============================================
			r.Get("/candidates/me/courses", myCoursesHandler(svc.Enrollments, logger))
			r.Post("/candidates/me/courses", enrollHandler(svc.Enrollments, logger))
			r.Put("/candidates/me/courses/{source}/{courseId}/modules/{moduleId}/videos/{videoId}/complete", videoCompleteHandler(svc.Enrollments, true, logger))
			r.Delete("/candidates/me/courses/{source}/{courseId}/modules/{moduleId}/videos/{videoId}/complete", videoCompleteHandler(svc.Enrollments, false, logger))
			r.Post("/candidates/me/course-content", openCourseContentHandler(svc.Catalog, logger))
			r.Get("/candidates/me/course-content", courseContentHandler(svc.Catalog, logger))

			// =============================================
			// 6. Companies
			// =============================================
			r.Post("/companies/register", companyRegisterHandler(svc.Companies, logger))
			r.Post("/companies/login", companyLoginHandler(svc.Companies, logger))
			r.Post("/companies/logout", companyLogoutHandler(svc.Companies, logger))
			r.Get("/companies/me", companyProfileHandler(svc.Companies, logger))
			r.Put("/companies/me", companyUpdateHandler(svc.Companies, logger))
			r.Get("/companies/me/jobs", companyJobsHandler(svc.Companies, logger))
			r.Post("/companies/me/jobs", publishJobHandler(svc.Companies, logger))
			r.Delete("/companies/me/jobs/{jobId}", deleteJobHandler(svc.Companies, logger))
			r.Get("/companies/me/jobs/{jobId}/applicants", jobApplicantsHandler(svc.Companies, logger))
			r.Get("/companies/me/applicants", applicantsHandler(svc.Companies, logger))
			r.Post("/companies/me/courses", publishCourseHandler(svc.Companies, logger))

			// =============================================
			// 7. Drafts
			// GET|PATCH|DELETE /v1/companies/me/drafts/{kind}
			// =============================================
			r.Get("/companies/me/drafts/{kind}", getDraftHandler(svc.Companies, logger))
			r.Patch("/companies/me/drafts/{kind}", editDraftHandler(svc.Companies, logger))
			r.Delete("/companies/me/drafts/{kind}", resetDraftHandler(svc.Companies, logger))
		})

		// =============================================
		// 8. Admin
		// POST /v1/admin/import
		// GET  /v1/admin/export
		// =============================================
		if svc.Import != nil {
			r.Post("/admin/import", importHandler(svc.Import, logger))
			r.Get("/admin/export", exportHandler(svc.Import, logger))
		}
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(store Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "jobflow-bfa", Status: "healthy", LastChecked: now},
		}

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			start := time.Now()
			err := store.Ping(ctx)
			status := "healthy"
			if err != nil {
				logger.Warn("store ping failed", zap.Error(err))
				status = "unhealthy"
			}
			services = append(services, domain.ServiceHealth{
				Name: "store", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		code := http.StatusOK
		if overallStatus == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Summary())
	}
}
