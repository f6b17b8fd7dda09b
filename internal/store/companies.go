package store

import (
	"context"
	"strings"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

func (s *Store) listCompanies(ctx context.Context) ([]domain.Company, error) {
	companies, _, err := load[[]domain.Company](ctx, s, KeyRegisteredCompanies)
	return companies, err
}

func (s *Store) findCompany(ctx context.Context, match func(*domain.Company) bool) (*domain.Company, error) {
	companies, err := s.listCompanies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if match(&companies[i]) {
			return &companies[i], nil
		}
	}
	return nil, nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	c, err := s.findCompany(ctx, func(c *domain.Company) bool { return c.ID == id })
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &domain.ErrNotFound{Resource: "company", ID: id}
	}
	return c, nil
}

func (s *Store) FindCompanyByEmail(ctx context.Context, email string) (*domain.Company, error) {
	return s.findCompany(ctx, func(c *domain.Company) bool { return strings.EqualFold(c.Email, email) })
}

// FindCompanyByCNPJ ignores punctuation in cnpj.
func (s *Store) FindCompanyByCNPJ(ctx context.Context, cnpj string) (*domain.Company, error) {
	digits := domain.OnlyDigits(cnpj)
	return s.findCompany(ctx, func(c *domain.Company) bool { return c.CNPJ == digits })
}

// CreateCompany appends c, rejecting a duplicate CNPJ or e-mail.
func (s *Store) CreateCompany(ctx context.Context, c *domain.Company) error {
	ctx, span := tracer.Start(ctx, "Store.CreateCompany")
	defer span.End()

	_, err := update(ctx, s, KeyRegisteredCompanies, func(companies *[]domain.Company) error {
		for _, existing := range *companies {
			if existing.CNPJ == c.CNPJ {
				return &domain.ErrConflict{Message: "CNPJ já cadastrado"}
			}
			if strings.EqualFold(existing.Email, c.Email) {
				return &domain.ErrConflict{Message: "Este email já está cadastrado"}
			}
		}
		*companies = append(*companies, *c)
		return nil
	})
	return err
}

func (s *Store) UpdateCompany(ctx context.Context, id string, fn func(*domain.Company) error) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "Store.UpdateCompany")
	defer span.End()

	var updated domain.Company
	_, err := update(ctx, s, KeyRegisteredCompanies, func(companies *[]domain.Company) error {
		for i := range *companies {
			if (*companies)[i].ID != id {
				continue
			}
			if err := fn(&(*companies)[i]); err != nil {
				return err
			}
			updated = (*companies)[i]
			for j := range *companies {
				if j != i && strings.EqualFold((*companies)[j].Email, updated.Email) {
					return &domain.ErrConflict{Message: "Este email já está cadastrado"}
				}
			}
			return nil
		}
		return &domain.ErrNotFound{Resource: "company", ID: id}
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
