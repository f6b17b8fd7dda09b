package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"
)

// bcryptCost is lowered by tests.
var bcryptCost = 12

func loginRequired(page string) error {
	return &domain.ErrUnauthorized{Message: "Faça login para continuar", Redirect: page}
}

// sessionUser resolves the candidate logged into the session.
func sessionUser(ctx context.Context, sessions port.SessionStore, users port.UserStore, sessionID string) (*domain.User, error) {
	id, err := sessions.SessionUserID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read user session: %w", err)
	}
	if id == "" {
		return nil, loginRequired("login")
	}
	u, err := users.GetUser(ctx, id)
	if isNotFound(err) {
		return nil, loginRequired("login")
	}
	return u, err
}

// sessionCompany resolves the company logged into the session.
func sessionCompany(ctx context.Context, sessions port.SessionStore, companies port.CompanyStore, sessionID string) (*domain.Company, error) {
	id, err := sessions.SessionCompanyID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read company session: %w", err)
	}
	if id == "" {
		return nil, loginRequired("login-company")
	}
	c, err := companies.GetCompany(ctx, id)
	if isNotFound(err) {
		return nil, loginRequired("login-company")
	}
	return c, err
}

func isNotFound(err error) bool {
	var nf *domain.ErrNotFound
	return errors.As(err, &nf)
}
