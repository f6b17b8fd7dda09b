package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var addressTracer = otel.Tracer("service/address")

// AddressService resolves postal codes and fills candidate addresses with them.
type AddressService struct {
	lookup   port.AddressLookup
	cache    port.Cache[*domain.CEPAddress]
	users    port.UserStore
	sessions port.SessionStore
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewAddressService(
	lookup port.AddressLookup,
	cache port.Cache[*domain.CEPAddress],
	users port.UserStore,
	sessions port.SessionStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AddressService {
	return &AddressService{
		lookup:   lookup,
		cache:    cache,
		users:    users,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// ============================================================
// Lookup: GET /v1/address/{cep}
// ============================================================

func (s *AddressService) Lookup(ctx context.Context, cep string) (*domain.CEPAddress, error) {
	ctx, span := addressTracer.Start(ctx, "AddressService.Lookup")
	defer span.End()

	digits := domain.OnlyDigits(cep)
	if len(digits) != 8 {
		return nil, &domain.ErrValidation{Field: "cep", Message: "CEP inválido"}
	}
	span.SetAttributes(attribute.String("cep", digits))

	if cached, ok := s.cache.Get(digits); ok {
		s.metrics.IncrCacheHit("cep")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("cep")

	addr, err := s.lookup.LookupCEP(ctx, digits)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			s.metrics.IncrExternalError("viacep")
			s.logger.Warn("cep lookup failed", zap.String("cep", digits), zap.Error(err))
		}
		return nil, fmt.Errorf("lookup cep: %w", err)
	}
	s.cache.Set(digits, addr)
	return addr, nil
}

// PrefillAddress looks cep up and copies the result into the candidate's
// address, keeping the house number.
func (s *AddressService) PrefillAddress(ctx context.Context, sessionID, cep string) (*domain.Address, error) {
	ctx, span := addressTracer.Start(ctx, "AddressService.PrefillAddress")
	defer span.End()

	u, err := sessionUser(ctx, s.sessions, s.users, sessionID)
	if err != nil {
		return nil, err
	}
	addr, err := s.Lookup(ctx, cep)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateUser(ctx, u.ID, func(u *domain.User) error {
		u.Address = addr.Prefill(u.Address)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &updated.Address, nil
}
