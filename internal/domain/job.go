package domain

import (
	"strings"
	"time"
)

// ============================================================
// Jobs
// ============================================================

type ContractType string

const (
	ContractCLT        ContractType = "CLT"
	ContractPJ         ContractType = "PJ"
	ContractEstagio    ContractType = "Estágio"
	ContractTemporario ContractType = "Temporário"
)

type WorkMode string

const (
	WorkPresencial WorkMode = "Presencial"
	WorkRemoto     WorkMode = "Remoto"
	WorkHibrido    WorkMode = "Híbrido"
)

const (
	JobStatusOpen = "Aberta"

	DefaultJobLocation = "Remoto"
	DefaultJobSalary   = "A combinar"
)

// Valid reports whether c is a known contract type. Empty is accepted as unset.
func (c ContractType) Valid() bool {
	switch c {
	case "", ContractCLT, ContractPJ, ContractEstagio, ContractTemporario:
		return true
	}
	return false
}

// Valid reports whether m is a known work mode. Empty is accepted as unset.
func (m WorkMode) Valid() bool {
	switch m {
	case "", WorkPresencial, WorkRemoto, WorkHibrido:
		return true
	}
	return false
}

// Video is one lesson inside a module. Only file metadata is kept.
type Video struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Duration string `json:"duration" yaml:"duration"`
	URL      string `json:"url,omitempty" yaml:"url"`
	FileName string `json:"fileName,omitempty" yaml:"fileName"`
}

// Module is a named group of videos.
type Module struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Videos []Video `json:"videos" yaml:"videos"`
}

// Job is a posting. CompanyID is empty for catalog postings.
type Job struct {
	ID           string       `json:"id" yaml:"id"`
	CompanyID    string       `json:"companyId,omitempty" yaml:"-"`
	Company      string       `json:"company" yaml:"company"`
	Title        string       `json:"title" yaml:"title"`
	Description  string       `json:"description,omitempty" yaml:"description"`
	Requirements string       `json:"requirements,omitempty" yaml:"requirements"`
	City         string       `json:"city,omitempty" yaml:"city"`
	State        string       `json:"state,omitempty" yaml:"state"`
	Salary       string       `json:"salary,omitempty" yaml:"salary"`
	ContractType ContractType `json:"contractType,omitempty" yaml:"contractType"`
	WorkMode     WorkMode     `json:"workMode,omitempty" yaml:"workMode"`
	Skills       []string     `json:"skills,omitempty" yaml:"skills"`
	Benefits     []string     `json:"benefits,omitempty" yaml:"benefits"`
	Status       string       `json:"status" yaml:"status"`
	Modules      []Module     `json:"modules,omitempty" yaml:"modules"`
	CreatedAt    time.Time    `json:"createdAt" yaml:"-"`
}

// HasCourse reports whether the job bundles course content.
func (j *Job) HasCourse() bool {
	return len(j.Modules) > 0
}

// Matches reports whether the lower-cased term appears in the title, company,
// description or any skill.
func (j *Job) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(j.Title), term) ||
		strings.Contains(strings.ToLower(j.Company), term) ||
		strings.Contains(strings.ToLower(j.Description), term) {
		return true
	}
	for _, s := range j.Skills {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

// PublishJobRequest is the body for POST /v1/companies/me/jobs.
// When Modules is nil the session's job draft is used instead.
type PublishJobRequest struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Requirements string       `json:"requirements"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	Salary       string       `json:"salary"`
	ContractType ContractType `json:"contractType"`
	WorkMode     WorkMode     `json:"workMode"`
	Skills       []string     `json:"skills"`
	Benefits     []string     `json:"benefits"`
	Modules      []Module     `json:"modules"`
}

// CloneModules deep-copies modules and their videos.
func CloneModules(src []Module) []Module {
	if src == nil {
		return nil
	}
	out := make([]Module, len(src))
	for i, m := range src {
		out[i] = Module{ID: m.ID, Title: m.Title, Videos: append([]Video(nil), m.Videos...)}
	}
	return out
}

// Clone returns a copy of j that shares no slices with it.
func (j Job) Clone() Job {
	j.Skills = append([]string(nil), j.Skills...)
	j.Benefits = append([]string(nil), j.Benefits...)
	j.Modules = CloneModules(j.Modules)
	return j
}
