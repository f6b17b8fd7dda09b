package domain

import "time"

// ============================================================
// Candidate
// ============================================================

const (
	RoleCandidate = "candidate"
	RoleCompany   = "company"

	StatusActive = "active"

	// MinPasswordLength mirrors the registration forms.
	MinPasswordLength = 6
)

// Resume keeps only the metadata of an uploaded file; the binary is never stored.
type Resume struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Education struct {
	Institution string `json:"institution"`
	Course      string `json:"course"`
	Period      string `json:"period,omitempty"`
}

type Experience struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Period      string `json:"period,omitempty"`
	Description string `json:"description,omitempty"`
}

type Language struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

// User is a registered candidate as persisted under registeredUsers.
type User struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	Name         string           `json:"name"`
	Role         string           `json:"role"`
	Status       string           `json:"status"`
	PasswordHash string           `json:"passwordHash,omitempty"`
	Phone        string           `json:"phone,omitempty"`
	Location     string           `json:"location,omitempty"`
	Bio          string           `json:"bio,omitempty"`
	Skills       []string         `json:"skills,omitempty"`
	Address      Address          `json:"address"`
	Education    []Education      `json:"education,omitempty"`
	Experience   []Experience     `json:"experience,omitempty"`
	Competencies []string         `json:"competencies,omitempty"`
	Languages    []Language       `json:"languages,omitempty"`
	Interests    []string         `json:"interests,omitempty"`
	Resume       *Resume          `json:"resume,omitempty"`
	Courses      []EnrolledCourse `json:"courses,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Public returns a copy safe to send to clients.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// FindCourse returns the index of the enrollment matching source and id, or -1.
func (u *User) FindCourse(source CourseSource, id string) int {
	for i := range u.Courses {
		if u.Courses[i].Source == source && u.Courses[i].ID == id {
			return i
		}
	}
	return -1
}

// CandidateRegisterRequest is the body for POST /v1/candidates/register.
type CandidateRegisterRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirmPassword"`
	Phone           string  `json:"phone"`
	Location        string  `json:"location"`
	Resume          *Resume `json:"resume"`
	Address
}

// LoginRequest is the body for the candidate and company login routes.
type LoginRequest struct {
	Email    string `json:"email"`
	CNPJ     string `json:"cnpj,omitempty"`
	Password string `json:"password"`
}

// ProfileUpdate replaces the editable candidate fields.
type ProfileUpdate struct {
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Location     string       `json:"location"`
	Bio          string       `json:"bio"`
	Skills       []string     `json:"skills"`
	Address      Address      `json:"address"`
	Education    []Education  `json:"education"`
	Experience   []Experience `json:"experience"`
	Competencies []string     `json:"competencies"`
	Languages    []Language   `json:"languages"`
	Interests    []string     `json:"interests"`
	Resume       *Resume      `json:"resume"`
}

// ProfileOverview is what the candidate profile page shows.
type ProfileOverview struct {
	User         User             `json:"user"`
	Applications []string         `json:"applications"`
	AppliedJobs  []AppliedJob     `json:"appliedJobs"`
	Courses      []EnrolledCourse `json:"courses"`
}

// SessionLogin is returned after a successful register or login.
type SessionLogin struct {
	Role string `json:"role"`
	ID   string `json:"id"`
	Name string `json:"name"`
	Page string `json:"page"`
}
