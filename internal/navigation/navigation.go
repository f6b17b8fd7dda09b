// Package navigation implements the per-session page state machine: the
// current page, the single logged-in flag, and the transiently selected job
// or course.
package navigation

import (
	"context"
	"fmt"
	"sync"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"
)

type Page string

const (
	Home            Page = "home"
	Jobs            Page = "jobs"
	JobDetails      Page = "job-details"
	Courses         Page = "courses"
	CourseDetails   Page = "course-details"
	CourseContent   Page = "course-content"
	Dashboard       Page = "dashboard"
	Login           Page = "login"
	Register        Page = "register"
	Profile         Page = "profile"
	MyCourses       Page = "my-courses"
	LoginCompany    Page = "login-company"
	RegisterCompany Page = "register-company"
)

// Pages lists every page in menu order.
var Pages = []Page{
	Home, Jobs, JobDetails, Courses, CourseDetails, CourseContent, Dashboard,
	Login, Register, Profile, MyCourses, LoginCompany, RegisterCompany,
}

func (p Page) Valid() bool {
	for _, known := range Pages {
		if p == known {
			return true
		}
	}
	return false
}

// Parse validates a page name.
func Parse(name string) (Page, error) {
	p := Page(name)
	if !p.Valid() {
		return "", &domain.ErrValidation{Field: "page", Message: fmt.Sprintf("unknown page %q", name)}
	}
	return p, nil
}

// parent is where Back lands from a detail page.
var parent = map[Page]Page{
	JobDetails:    Jobs,
	CourseDetails: Courses,
	CourseContent: MyCourses,
}

// Payload optionally carries the entity a transition selects.
type Payload struct {
	Job    *domain.Job    `json:"job,omitempty"`
	Course *domain.Course `json:"course,omitempty"`
}

// State is a snapshot of a controller.
type State struct {
	Page           Page           `json:"page"`
	LoggedIn       bool           `json:"loggedIn"`
	SelectedJob    *domain.Job    `json:"selectedJob,omitempty"`
	SelectedCourse *domain.Course `json:"selectedCourse,omitempty"`
}

// Controller is safe for concurrent use; transitions are applied one at a time.
type Controller struct {
	mu        sync.Mutex
	sessionID string
	markers   port.SessionMarkers
	state     State
}

// NewController starts a session on the home page, logged out.
func NewController(sessionID string, markers port.SessionMarkers) *Controller {
	return &Controller{
		sessionID: sessionID,
		markers:   markers,
		state:     State{Page: Home},
	}
}

// Navigate moves to target. Protected pages re-derive the logged-in flag
// from the persisted markers and login always clears it. A non-nil payload
// replaces the selection. On error the state is left untouched.
func (c *Controller) Navigate(ctx context.Context, target string, payload *Payload) (State, error) {
	page, err := Parse(target)
	if err != nil {
		return c.State(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	loggedIn := c.state.LoggedIn
	switch page {
	case Dashboard:
		loggedIn, err = c.markers.IsCompanyLoggedIn(ctx, c.sessionID)
	case Profile, MyCourses:
		loggedIn, err = c.markers.IsUserLoggedIn(ctx, c.sessionID)
	case Login:
		loggedIn = false
	}
	if err != nil {
		return c.snapshot(), fmt.Errorf("reading session markers: %w", err)
	}

	c.state.Page = page
	c.state.LoggedIn = loggedIn
	if payload != nil {
		c.state.SelectedJob = cloneJob(payload.Job)
		c.state.SelectedCourse = cloneCourse(payload.Course)
	}
	return c.snapshot(), nil
}

// Back clears the selection and returns to the parent of the current page,
// or home when it has none.
func (c *Controller) Back() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	to, ok := parent[c.state.Page]
	if !ok {
		to = Home
	}
	c.state.Page = to
	c.state.SelectedJob = nil
	c.state.SelectedCourse = nil
	return c.snapshot()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() State {
	s := c.state
	s.SelectedJob = cloneJob(s.SelectedJob)
	s.SelectedCourse = cloneCourse(s.SelectedCourse)
	return s
}

func cloneJob(j *domain.Job) *domain.Job {
	if j == nil {
		return nil
	}
	cp := j.Clone()
	return &cp
}

func cloneCourse(c *domain.Course) *domain.Course {
	if c == nil {
		return nil
	}
	cp := c.Clone()
	return &cp
}
