// Package viacep resolves Brazilian postal codes through the public ViaCEP API.
package viacep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const serviceName = "viacep"

var tracer = otel.Tracer("viacep")

// Client fetches addresses from GET {baseURL}/ws/{cep}/json/.
type Client struct {
	httpClient *http.Client
	baseURL    string
	guard      *resilience.Guard
}

// NewClient creates a new ViaCEP client. A nil circuit breaker gets the default
// one, which does not count unknown CEPs as failures.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	if cb == nil {
		cb = resilience.NewCircuitBreaker(serviceName, func(err error) bool {
			var nf *domain.ErrNotFound
			return err == nil || errors.As(err, &nf)
		})
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		guard:      resilience.NewGuard(cb, cfg),
	}
}

// response mirrors the ViaCEP payload. erro is a bool in the current API and
// the string "true" in older deployments.
type response struct {
	CEP        string          `json:"cep"`
	Logradouro string          `json:"logradouro"`
	Bairro     string          `json:"bairro"`
	Localidade string          `json:"localidade"`
	UF         string          `json:"uf"`
	Erro       json.RawMessage `json:"erro"`
}

func (r *response) notFound() bool {
	v := strings.Trim(strings.TrimSpace(string(r.Erro)), `"`)
	return v == "true"
}

// LookupCEP resolves an 8-digit CEP with retry, circuit breaker, bulkhead, and tracing.
func (c *Client) LookupCEP(ctx context.Context, cep string) (*domain.CEPAddress, error) {
	ctx, span := tracer.Start(ctx, "ViaCEP.LookupCEP")
	defer span.End()

	digits := domain.OnlyDigits(cep)
	span.SetAttributes(attribute.String("cep", digits))
	if len(digits) != 8 {
		return nil, &domain.ErrValidation{Field: "cep", Message: "CEP must have 8 digits"}
	}

	addr, err := resilience.Call(ctx, c.guard, func(ctx context.Context) (*domain.CEPAddress, error) {
		return c.fetch(ctx, digits)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, nf
		}
		if resilience.Rejected(err) {
			return nil, &domain.ErrCircuitOpen{Service: serviceName}
		}
		return nil, &domain.ErrExternalService{Service: serviceName, Err: err}
	}

	return addr, nil
}

func (c *Client) fetch(ctx context.Context, cep string) (*domain.CEPAddress, error) {
	url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// ViaCEP answers 400 for malformed codes; nothing to retry there.
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return nil, resilience.Permanent(&domain.ErrNotFound{Resource: "cep", ID: cep})
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("viacep returned status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding viacep response: %w", err)
	}
	if body.notFound() {
		return nil, resilience.Permanent(&domain.ErrNotFound{Resource: "cep", ID: cep})
	}

	return &domain.CEPAddress{
		CEP:        domain.FormatCEP(body.CEP),
		Logradouro: body.Logradouro,
		Bairro:     body.Bairro,
		Localidade: body.Localidade,
		UF:         body.UF,
	}, nil
}
