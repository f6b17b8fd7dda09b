package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/cache"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
	"github.com/boddenberg/jobflow-bfa-go/internal/navigation"
	"github.com/boddenberg/jobflow-bfa-go/internal/service"
	"github.com/boddenberg/jobflow-bfa-go/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func TestSession_OpenAndValidate(t *testing.T) {
	e := newEnv(t)

	resp, err := e.sessions.Open(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.SessionID == "" || resp.SessionToken == "" {
		t.Fatalf("expected id and token, got %+v", resp)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expected 3600s, got %d", resp.ExpiresIn)
	}

	id, err := e.sessions.ValidateToken(resp.SessionToken)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if id != resp.SessionID {
		t.Errorf("expected %s, got %s", resp.SessionID, id)
	}
}

func TestSession_RejectsForeignTokens(t *testing.T) {
	e := newEnv(t)

	otherCache := cache.New[*service.Workspace](time.Minute)
	defer otherCache.Close()
	other := service.NewSessionService(store.New(newMemKV(), nil, nil, zap.NewNop()), otherCache, "other-secret", time.Hour, observability.NewMetrics(), zap.NewNop())
	foreign, err := other.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	wrongType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.SessionClaims{
		Sub:  "s1",
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewWithClaims: %v", err)
	}

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"other secret": foreign.SessionToken,
		"wrong type":   wrongType,
	} {
		t.Run(name, func(t *testing.T) {
			var unauthorized *domain.ErrUnauthorized
			if _, err := e.sessions.ValidateToken(token); !errors.As(err, &unauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestSession_WorkspaceIsStableAndRecreated(t *testing.T) {
	workspaces := cache.New[*service.Workspace](time.Hour)
	defer workspaces.Close()
	svc := service.NewSessionService(store.New(newMemKV(), nil, nil, zap.NewNop()), workspaces, "secret", time.Hour, observability.NewMetrics(), zap.NewNop())

	resp, err := svc.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first := svc.Workspace(resp.SessionID)
	if svc.Workspace(resp.SessionID) != first {
		t.Fatal("expected the same workspace on repeated access")
	}

	workspaces.Delete(resp.SessionID)
	again := svc.Workspace(resp.SessionID)
	if again == first || again.SessionID != resp.SessionID {
		t.Fatal("expected a fresh workspace for the same session")
	}
}

func TestSession_NavigateUsesPersistedMarkers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sid := e.openSession(t)

	state, err := e.sessions.Navigate(ctx, sid, "profile", nil)
	if err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if state.LoggedIn {
		t.Fatal("expected logged out before registering")
	}

	e.registerCandidate(t, sid, "maria@example.com", false)

	state, err = e.sessions.Navigate(ctx, sid, "my-courses", nil)
	if err != nil {
		t.Fatalf("navigate my-courses: %v", err)
	}
	if !state.LoggedIn || state.Page != navigation.MyCourses {
		t.Fatalf("expected logged in on my-courses, got %+v", state)
	}

	state, err = e.sessions.Navigate(ctx, sid, "dashboard", nil)
	if err != nil {
		t.Fatalf("navigate dashboard: %v", err)
	}
	if state.LoggedIn {
		t.Fatal("a candidate session must not count as a company login")
	}

	state, err = e.sessions.Navigate(ctx, sid, "login", nil)
	if err != nil {
		t.Fatalf("navigate login: %v", err)
	}
	if state.LoggedIn {
		t.Fatal("expected login to clear the flag")
	}

	if got := e.metrics.Summary().Navigations; got != 4 {
		t.Errorf("expected 4 navigations, got %d", got)
	}
}

func TestSession_NavigateUnknownPage(t *testing.T) {
	e := newEnv(t)
	sid := e.openSession(t)

	_, err := e.sessions.Navigate(context.Background(), sid, "settings", nil)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := e.sessions.State(sid).Page; got != navigation.Home {
		t.Errorf("expected home, got %s", got)
	}
	if got := e.metrics.Summary().Navigations; got != 0 {
		t.Errorf("expected no navigation recorded, got %d", got)
	}
}

func TestSession_Back(t *testing.T) {
	e := newEnv(t)
	sid := e.openSession(t)
	job := &domain.Job{ID: "2", Title: "Desenvolvedor Frontend"}

	state, err := e.sessions.Navigate(context.Background(), sid, "job-details", &navigation.Payload{Job: job})
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if state.SelectedJob == nil {
		t.Fatal("expected selected job")
	}
	state = e.sessions.Back(sid)
	if state.Page != navigation.Jobs || state.SelectedJob != nil {
		t.Fatalf("unexpected state after back: %+v", state)
	}
}

func TestSession_SweepRemovesExpiredSessionKeys(t *testing.T) {
	kv := newMemKV()
	st := store.New(kv, nil, nil, zap.NewNop())
	workspaces := cache.New[*service.Workspace](time.Hour)
	defer workspaces.Close()
	ctx := context.Background()

	expired := service.NewSessionService(st, workspaces, "secret", -time.Minute, observability.NewMetrics(), zap.NewNop())
	live := service.NewSessionService(st, workspaces, "secret", time.Hour, observability.NewMetrics(), zap.NewNop())

	old, err := expired.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.SetSearchTerm(ctx, old.SessionID, "react"); err != nil {
		t.Fatalf("search term: %v", err)
	}
	if err := st.SetUserSession(ctx, old.SessionID, "u1"); err != nil {
		t.Fatalf("user session: %v", err)
	}
	current, err := live.Open(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.SetSearchTerm(ctx, current.SessionID, "go"); err != nil {
		t.Fatalf("search term: %v", err)
	}

	n, err := live.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 swept session, got %d", n)
	}

	if keys, _ := kv.Keys(ctx, "session/"+old.SessionID+"/"); len(keys) != 0 {
		t.Errorf("expired session keys left behind: %v", keys)
	}
	if keys, _ := kv.Keys(ctx, "session/"+current.SessionID+"/"); len(keys) != 2 {
		t.Errorf("live session must keep its keys, got %v", keys)
	}
}
