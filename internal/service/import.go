package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var importTracer = otel.Tracer("service/import")

// ImportService moves whole key-value dumps in and out, including the
// unversioned values a browser left in localStorage.
type ImportService struct {
	snapshots port.SnapshotStore
	logger    *zap.Logger
}

func NewImportService(snapshots port.SnapshotStore, logger *zap.Logger) *ImportService {
	return &ImportService{snapshots: snapshots, logger: logger}
}

func (s *ImportService) Import(ctx context.Context, values map[string]string) (*domain.ImportResult, error) {
	ctx, span := importTracer.Start(ctx, "ImportService.Import")
	defer span.End()
	span.SetAttributes(attribute.Int("keys", len(values)))

	if len(values) == 0 {
		return nil, &domain.ErrValidation{Field: "values", Message: "dump is empty"}
	}
	res, err := s.snapshots.Import(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("import dump: %w", err)
	}
	return res, nil
}

func (s *ImportService) Export(ctx context.Context) (map[string]string, error) {
	ctx, span := importTracer.Start(ctx, "ImportService.Export")
	defer span.End()

	values, err := s.snapshots.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("export dump: %w", err)
	}
	s.logger.Info("dump exported", zap.Int("keys", len(values)))
	return values, nil
}
