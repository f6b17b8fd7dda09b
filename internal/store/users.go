package store

import (
	"context"
	"strings"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, span := tracer.Start(ctx, "Store.ListUsers")
	defer span.End()

	users, _, err := load[[]domain.User](ctx, s, KeyRegisteredUsers)
	return users, err
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: id}
}

// FindUserByEmail matches case-insensitively.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// CreateUser appends u, rejecting a duplicate e-mail.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	ctx, span := tracer.Start(ctx, "Store.CreateUser")
	defer span.End()

	_, err := update(ctx, s, KeyRegisteredUsers, func(users *[]domain.User) error {
		for _, existing := range *users {
			if strings.EqualFold(existing.Email, u.Email) {
				return &domain.ErrConflict{Message: "Este email já está cadastrado"}
			}
		}
		*users = append(*users, *u)
		return nil
	})
	return err
}

// UpdateUser applies fn to the stored user under the registeredUsers lock.
func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Store.UpdateUser")
	defer span.End()

	var updated domain.User
	_, err := update(ctx, s, KeyRegisteredUsers, func(users *[]domain.User) error {
		for i := range *users {
			if (*users)[i].ID != id {
				continue
			}
			if err := fn(&(*users)[i]); err != nil {
				return err
			}
			updated = (*users)[i]
			return nil
		}
		return &domain.ErrNotFound{Resource: "user", ID: id}
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
