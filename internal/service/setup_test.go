package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/catalog"
	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/cache"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
	"github.com/boddenberg/jobflow-bfa-go/internal/service"
	"github.com/boddenberg/jobflow-bfa-go/internal/store"

	"go.uber.org/zap"
)

// --- Fakes ---

type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memKV) Ping(context.Context) error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) ofType(t domain.EventType) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// --- Environment ---

type env struct {
	store       *store.Store
	sessions    *service.SessionService
	candidates  *service.CandidateService
	companies   *service.CompanyService
	catalog     *service.CatalogService
	enrollments *service.EnrollmentService
	events      *recordingPublisher
	metrics     *observability.Metrics
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	valueCache := cache.New[string](time.Minute)
	t.Cleanup(valueCache.Close)
	workspaces := cache.New[*service.Workspace](time.Hour)
	t.Cleanup(workspaces.Close)

	st := store.New(newMemKV(), valueCache, metrics, logger)
	events := &recordingPublisher{}
	sessions := service.NewSessionService(st, workspaces, "test-secret", time.Hour, metrics, logger)

	return &env{
		store:       st,
		sessions:    sessions,
		candidates:  service.NewCandidateService(st, st, st, cat, st, events, metrics, logger),
		companies:   service.NewCompanyService(st, st, st, cat, st, st, sessions, events, metrics, logger),
		catalog:     service.NewCatalogService(cat, st, st, st, st, 6, 6, logger),
		enrollments: service.NewEnrollmentService(st, st, cat, st, st, events, metrics, logger),
		events:      events,
		metrics:     metrics,
	}
}

func (e *env) openSession(t *testing.T) string {
	t.Helper()
	resp, err := e.sessions.Open(context.Background())
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return resp.SessionID
}

func (e *env) registerCandidate(t *testing.T, sessionID, email string, withResume bool) *domain.SessionLogin {
	t.Helper()
	req := &domain.CandidateRegisterRequest{
		Name:            "Maria Souza",
		Email:           email,
		Password:        "segredo1",
		ConfirmPassword: "segredo1",
		Phone:           "11999990000",
	}
	if withResume {
		req.Resume = &domain.Resume{Name: "cv.pdf", Type: "application/pdf"}
	}
	login, err := e.candidates.Register(context.Background(), sessionID, req)
	if err != nil {
		t.Fatalf("register candidate: %v", err)
	}
	return login
}

func (e *env) registerCompany(t *testing.T, sessionID, name, cnpj, email string) *domain.SessionLogin {
	t.Helper()
	login, err := e.companies.Register(context.Background(), sessionID, &domain.CompanyRegisterRequest{
		Name:            name,
		CNPJ:            cnpj,
		Email:           email,
		Password:        "segredo1",
		ConfirmPassword: "segredo1",
		CEP:             "01310-100",
		City:            "São Paulo",
		State:           "SP",
		CompanySize:     "Pequena empresa (20 a 99 funcionários)",
	})
	if err != nil {
		t.Fatalf("register company: %v", err)
	}
	return login
}
