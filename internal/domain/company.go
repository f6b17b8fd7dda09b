package domain

import (
	"fmt"
	"time"
)

// ============================================================
// Company
// ============================================================

// CompanySizes are the size classifications offered at registration.
var CompanySizes = []string{
	"MEI (1 pessoa)",
	"Microempresa (até 19 funcionários)",
	"Pequena empresa (20 a 99 funcionários)",
	"Média empresa (100 a 499 funcionários)",
	"Grande empresa (500+ funcionários)",
}

// ValidCompanySize reports whether size is one of CompanySizes.
func ValidCompanySize(size string) bool {
	for _, s := range CompanySizes {
		if s == size {
			return true
		}
	}
	return false
}

type CompanyAddress struct {
	Street string `json:"street"`
	CEP    string `json:"cep"`
	City   string `json:"city"`
	State  string `json:"state"`
}

// Company is a registered employer as persisted under registeredCompanies.
type Company struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	CNPJ         string         `json:"cnpj"` // digits only
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	Role         string         `json:"role"`
	Status       string         `json:"status"`
	PasswordHash string         `json:"passwordHash,omitempty"`
	Address      CompanyAddress `json:"address"`
	Segment      string         `json:"segment,omitempty"`
	CompanySize  string         `json:"companySize,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Public returns a copy safe to send to clients.
func (c Company) Public() Company {
	c.PasswordHash = ""
	return c
}

// FormattedCNPJ renders the CNPJ as 00.000.000/0000-00.
func (c Company) FormattedCNPJ() string {
	d := c.CNPJ
	if len(d) != 14 {
		return d
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:14])
}

// CompanyRegisterRequest is the body for POST /v1/companies/register.
type CompanyRegisterRequest struct {
	Name            string `json:"name"`
	CNPJ            string `json:"cnpj"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Phone           string `json:"phone"`
	Location        string `json:"location"`
	CEP             string `json:"cep"`
	City            string `json:"city"`
	State           string `json:"state"`
	Segment         string `json:"segment"`
	CompanySize     string `json:"companySize"`
}

// CompanyUpdate replaces the editable company profile fields.
type CompanyUpdate struct {
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	Address     CompanyAddress `json:"address"`
	Segment     string         `json:"segment"`
	CompanySize string         `json:"companySize"`
}
