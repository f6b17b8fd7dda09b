package domain

import "strings"

// Address is a candidate's postal address. Field names follow the ViaCEP vocabulary.
type Address struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Cidade     string `json:"cidade"`
	Estado     string `json:"estado"`
	Numero     string `json:"numero"`
}

// CEPAddress is the result of a postal-code lookup.
type CEPAddress struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
}

// Prefill copies the looked-up fields into a, keeping the house number.
func (c *CEPAddress) Prefill(a Address) Address {
	a.CEP = FormatCEP(c.CEP)
	a.Logradouro = c.Logradouro
	a.Bairro = c.Bairro
	a.Cidade = c.Localidade
	a.Estado = c.UF
	return a
}

// OnlyDigits strips every non-digit rune from s.
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// FormatCEP renders a CEP as 00000-000. Values that are not 8 digits are returned as digits only.
func FormatCEP(cep string) string {
	d := OnlyDigits(cep)
	if len(d) != 8 {
		return d
	}
	return d[:5] + "-" + d[5:]
}
