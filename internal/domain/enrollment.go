package domain

import (
	"math"
	"time"
)

// ============================================================
// Enrollment snapshots and course progress
// ============================================================

// CourseSource tells where an enrollment snapshot was cloned from.
type CourseSource string

const (
	SourceCatalog CourseSource = "catalog"
	SourceJob     CourseSource = "job"
)

func (s CourseSource) Valid() bool {
	return s == SourceCatalog || s == SourceJob
}

type EnrolledVideo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	URL       string `json:"url,omitempty"`
	Completed bool   `json:"completed"`
}

// EnrolledModule is completed exactly when every one of its videos is.
type EnrolledModule struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Completed bool            `json:"completed"`
	Videos    []EnrolledVideo `json:"videos"`
}

// EnrolledCourse is the copy of a course stored inside a user record.
// Edits to the original course or job never reach it.
type EnrolledCourse struct {
	ID             string           `json:"id"`
	Source         CourseSource     `json:"source"`
	Title          string           `json:"title"`
	Company        string           `json:"company,omitempty"`
	Instructor     string           `json:"instructor,omitempty"`
	Duration       string           `json:"duration,omitempty"`
	Mode           string           `json:"mode,omitempty"`
	Description    string           `json:"description,omitempty"`
	Modules        int              `json:"modules"`
	ModulesList    []EnrolledModule `json:"modulesList"`
	Progress       int              `json:"progress"`
	EnrollmentDate time.Time        `json:"enrollmentDate"`
}

// EnrollmentFromCourse clones a catalog course. newID fills missing module/video ids.
func EnrollmentFromCourse(c *Course, now time.Time, newID func() string) EnrolledCourse {
	return EnrolledCourse{
		ID:             c.ID,
		Source:         SourceCatalog,
		Title:          c.Title,
		Instructor:     c.Instructor,
		Duration:       c.Duration,
		Mode:           c.Mode,
		Description:    c.Description,
		Modules:        len(c.ModulesList),
		ModulesList:    cloneModules(c.ModulesList, newID),
		EnrollmentDate: now,
	}
}

// EnrollmentFromJob clones the course bundled with a job.
func EnrollmentFromJob(j *Job, now time.Time, newID func() string) EnrolledCourse {
	return EnrolledCourse{
		ID:             j.ID,
		Source:         SourceJob,
		Title:          j.Title,
		Company:        j.Company,
		Instructor:     j.Company,
		Duration:       FormatMinutes(TotalMinutes(j.Modules)),
		Mode:           "Online",
		Description:    j.Description,
		Modules:        len(j.Modules),
		ModulesList:    cloneModules(j.Modules, newID),
		EnrollmentDate: now,
	}
}

func cloneModules(src []Module, newID func() string) []EnrolledModule {
	out := make([]EnrolledModule, 0, len(src))
	for _, m := range src {
		em := EnrolledModule{ID: m.ID, Title: m.Title, Videos: make([]EnrolledVideo, 0, len(m.Videos))}
		if em.ID == "" {
			em.ID = newID()
		}
		for _, v := range m.Videos {
			ev := EnrolledVideo{ID: v.ID, Title: v.Title, Duration: v.Duration, URL: v.URL}
			if ev.ID == "" {
				ev.ID = newID()
			}
			em.Videos = append(em.Videos, ev)
		}
		out = append(out, em)
	}
	return out
}

// SetVideoCompleted flips one video and recomputes module flags and progress.
func (c *EnrolledCourse) SetVideoCompleted(moduleID, videoID string, completed bool) error {
	for mi := range c.ModulesList {
		m := &c.ModulesList[mi]
		if m.ID != moduleID {
			continue
		}
		for vi := range m.Videos {
			if m.Videos[vi].ID == videoID {
				m.Videos[vi].Completed = completed
				c.Recompute()
				return nil
			}
		}
		return &ErrNotFound{Resource: "video", ID: videoID}
	}
	return &ErrNotFound{Resource: "module", ID: moduleID}
}

// Recompute derives every module flag and the progress percentage from the video flags.
func (c *EnrolledCourse) Recompute() {
	total, done := 0, 0
	for mi := range c.ModulesList {
		m := &c.ModulesList[mi]
		all := true
		for _, v := range m.Videos {
			total++
			if v.Completed {
				done++
			} else {
				all = false
			}
		}
		m.Completed = all
	}
	c.Progress = Progress(done, total)
}

// Progress is round(100 * done / total), 0 when there is nothing to watch.
func Progress(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// EnrollRequest is the body for POST /v1/candidates/me/courses.
type EnrollRequest struct {
	Source CourseSource `json:"source"`
	ID     string       `json:"id"`
}

// EnrollResult reports whether a new snapshot was created.
type EnrollResult struct {
	Course          EnrolledCourse `json:"course"`
	AlreadyEnrolled bool           `json:"alreadyEnrolled"`
	Page            string         `json:"page"`
}

// CourseRef points at the course a session opened for viewing.
type CourseRef struct {
	Source CourseSource `json:"source"`
	ID     string       `json:"id"`
}
