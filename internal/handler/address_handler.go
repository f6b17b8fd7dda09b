package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/jobflow-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Address: GET /v1/address/{cep}
// ============================================================

func addressLookupHandler(svc *service.AddressService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/address/{cep}")
		defer span.End()

		addr, err := svc.Lookup(ctx, chi.URLParam(r, "cep"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, addr)
	}
}

func addressPrefillHandler(svc *service.AddressService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/candidates/me/address/{cep}")
		defer span.End()

		addr, err := svc.PrefillAddress(ctx, SessionIDFromContext(ctx), chi.URLParam(r, "cep"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, addr)
	}
}

// ============================================================
// 8. Admin: /v1/admin
// ============================================================

// importHandler takes a flat key → JSON string map, the shape of a browser
// localStorage dump.
func importHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/import")
		defer span.End()

		var values map[string]string
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.Import(ctx, values)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func exportHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/export")
		defer span.End()

		values, err := svc.Export(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, values)
	}
}
