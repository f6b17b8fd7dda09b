package domain

import "strings"

// Course is a catalog entry. Catalog courses come from the embedded catalog;
// company-authored ones are persisted under coursesData.
type Course struct {
	ID          string   `json:"id" yaml:"id"`
	CompanyID   string   `json:"companyId,omitempty" yaml:"-"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Duration    string   `json:"duration,omitempty" yaml:"duration"`
	Modules     int      `json:"modules" yaml:"modules"`
	Mode        string   `json:"mode,omitempty" yaml:"mode"`
	Instructor  string   `json:"instructor,omitempty" yaml:"instructor"`
	Image       string   `json:"image,omitempty" yaml:"image"`
	Skills      []string `json:"skills,omitempty" yaml:"skills"`
	Price       string   `json:"price,omitempty" yaml:"price"`
	ModulesList []Module `json:"modulesList,omitempty" yaml:"modulesList"`
}

// Matches reports whether term appears in the course title, case-insensitively.
func (c *Course) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	return term == "" || strings.Contains(strings.ToLower(c.Title), term)
}

// PublishCourseRequest is the body for POST /v1/companies/me/courses.
// The modules come from the session's course draft.
type PublishCourseRequest struct {
	Title       string   `json:"title"`
	Instructor  string   `json:"instructor"`
	Description string   `json:"description"`
	Mode        string   `json:"mode"`
	Skills      []string `json:"skills"`
	Price       string   `json:"price"`
}

// DefaultInstructor is used when a company course is published without one.
const DefaultInstructor = "Sem Nome do Instrutor"

// Clone returns a copy of c that shares no slices with it.
func (c Course) Clone() Course {
	c.Skills = append([]string(nil), c.Skills...)
	c.ModulesList = CloneModules(c.ModulesList)
	return c
}
