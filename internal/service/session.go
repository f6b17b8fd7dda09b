// Package service holds the application services behind the HTTP surface.
// Each client session owns a Workspace with its navigation state and the two
// form drafts; everything else lives in the typed store.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/courseform"
	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
	"github.com/boddenberg/jobflow-bfa-go/internal/navigation"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

const (
	tokenTypeSession = "session"
	tokenIssuer      = "jobflow-bfa"
)

// Workspace is the transient, per-session state.
type Workspace struct {
	SessionID   string
	Nav         *navigation.Controller
	JobDraft    *courseform.Editor
	CourseDraft *courseform.Editor
}

// SessionService opens client sessions and owns their workspaces.
type SessionService struct {
	markers    port.SessionLifecycle
	workspaces port.SessionCache[*Workspace]
	secret     []byte
	ttl        time.Duration
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu sync.Mutex
}

func NewSessionService(
	markers port.SessionLifecycle,
	workspaces port.SessionCache[*Workspace],
	secret string,
	ttl time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		markers:    markers,
		workspaces: workspaces,
		secret:     []byte(secret),
		ttl:        ttl,
		metrics:    metrics,
		logger:     logger,
	}
}

// ============================================================
// Open: POST /v1/sessions
// ============================================================

func (s *SessionService) Open(ctx context.Context) (*domain.SessionResponse, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Open")
	defer span.End()

	id := uuid.New().String()
	now := time.Now()
	token, err := s.sign(id, now)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := s.markers.OpenSession(ctx, id, now.Add(s.ttl)); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	s.workspaces.Set(id, s.newWorkspace(id))

	span.SetAttributes(attribute.String("session.id", id))
	s.logger.Info("session opened", zap.String("session_id", id))

	return &domain.SessionResponse{
		SessionID:    id,
		SessionToken: token,
		ExpiresIn:    int(s.ttl.Seconds()),
	}, nil
}

// ============================================================
// Tokens
// ============================================================

// SessionClaims are carried by the session bearer token.
type SessionClaims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// ValidateToken returns the session id carried by a valid token.
func (s *SessionService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", &domain.ErrUnauthorized{Message: "Sessão inválida ou expirada"}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Sub == "" {
		return "", &domain.ErrUnauthorized{Message: "Sessão inválida"}
	}
	if claims.Type != tokenTypeSession {
		return "", &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}
	return claims.Sub, nil
}

func (s *SessionService) sign(sessionID string, now time.Time) (string, error) {
	claims := SessionClaims{
		Sub:  sessionID,
		Type: tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ============================================================
// Workspaces
// ============================================================

// Workspace returns the session's workspace, starting a fresh one when the
// previous one expired while the token is still valid.
func (s *SessionService) Workspace(sessionID string) *Workspace {
	if ws, ok := s.workspaces.Get(sessionID); ok {
		s.workspaces.Touch(sessionID)
		return ws
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.workspaces.Get(sessionID); ok {
		return ws
	}
	ws := s.newWorkspace(sessionID)
	s.workspaces.Set(sessionID, ws)
	s.logger.Debug("workspace recreated", zap.String("session_id", sessionID))
	return ws
}

func (s *SessionService) newWorkspace(sessionID string) *Workspace {
	return &Workspace{
		SessionID:   sessionID,
		Nav:         navigation.NewController(sessionID, s.markers),
		JobDraft:    courseform.New(),
		CourseDraft: courseform.New(),
	}
}

// ============================================================
// Navigation: /v1/navigation
// ============================================================

func (s *SessionService) Navigate(ctx context.Context, sessionID, target string, payload *navigation.Payload) (navigation.State, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("page", target))

	state, err := s.Workspace(sessionID).Nav.Navigate(ctx, target, payload)
	if err != nil {
		return state, err
	}
	s.metrics.IncrNavigation(string(state.Page))
	return state, nil
}

func (s *SessionService) Back(sessionID string) navigation.State {
	state := s.Workspace(sessionID).Nav.Back()
	s.metrics.IncrNavigation(string(state.Page))
	return state
}

func (s *SessionService) State(sessionID string) navigation.State {
	return s.Workspace(sessionID).Nav.State()
}

// ============================================================
// Sweeping
// ============================================================

// Sweep removes the persisted keys of sessions whose token has expired.
func (s *SessionService) Sweep(ctx context.Context) (int, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Sweep")
	defer span.End()

	n, err := s.markers.SweepSessions(ctx, time.Now())
	if err != nil {
		return n, fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired sessions swept", zap.Int("sessions", n))
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done. A non-positive
// interval disables sweeping.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Warn("session sweep failed", zap.Error(err))
			}
		}
	}
}
