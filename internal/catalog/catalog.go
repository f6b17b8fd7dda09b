// Package catalog holds the default job postings and courses that ship with
// JobFlow. They are read-only: company-authored jobs and courses live in the store.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is an immutable set of jobs and courses. Accessors return copies.
type Catalog struct {
	jobs    []domain.Job
	courses []domain.Course
}

type document struct {
	Jobs    []domain.Job    `yaml:"jobs"`
	Courses []domain.Course `yaml:"courses"`
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse builds a catalog from YAML. Job ids must be unique, as must course ids.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	seen := make(map[string]bool, len(doc.Jobs))
	for i := range doc.Jobs {
		j := &doc.Jobs[i]
		if j.ID == "" || seen[j.ID] {
			return nil, fmt.Errorf("catalog job %d: missing or duplicate id %q", i, j.ID)
		}
		seen[j.ID] = true
		if j.Status == "" {
			j.Status = domain.JobStatusOpen
		}
	}

	seen = make(map[string]bool, len(doc.Courses))
	for i := range doc.Courses {
		c := &doc.Courses[i]
		if c.ID == "" || seen[c.ID] {
			return nil, fmt.Errorf("catalog course %d: missing or duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true
		if c.Modules == 0 {
			c.Modules = len(c.ModulesList)
		}
	}

	// Postings are listed with the highest id first.
	sort.SliceStable(doc.Jobs, func(a, b int) bool {
		return numericID(doc.Jobs[a].ID) > numericID(doc.Jobs[b].ID)
	})

	return &Catalog{jobs: doc.Jobs, courses: doc.Courses}, nil
}

func numericID(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

func (c *Catalog) Jobs() []domain.Job {
	out := make([]domain.Job, len(c.jobs))
	for i, j := range c.jobs {
		out[i] = j.Clone()
	}
	return out
}

func (c *Catalog) Job(id string) (domain.Job, bool) {
	for _, j := range c.jobs {
		if j.ID == id {
			return j.Clone(), true
		}
	}
	return domain.Job{}, false
}

func (c *Catalog) Courses() []domain.Course {
	out := make([]domain.Course, len(c.courses))
	for i, course := range c.courses {
		out[i] = course.Clone()
	}
	return out
}

func (c *Catalog) Course(id string) (domain.Course, bool) {
	for _, course := range c.courses {
		if course.ID == id {
			return course.Clone(), true
		}
	}
	return domain.Course{}, false
}
