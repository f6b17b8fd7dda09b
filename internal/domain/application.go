package domain

import "time"

// AppliedJob is the job snapshot kept in a candidate's userApplications list.
type AppliedJob struct {
	Job       Job       `json:"job"`
	AppliedAt time.Time `json:"appliedAt"`
}

// Applicant is one entry of a job's applicant index, read by the posting company.
type Applicant struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Skills    []string  `json:"skills,omitempty"`
	Resume    *Resume   `json:"resume,omitempty"`
	AppliedAt time.Time `json:"appliedAt"`
}

// ApplyResult is returned by POST /v1/jobs/{jobId}/apply.
type ApplyResult struct {
	JobID          string `json:"jobId"`
	Company        string `json:"company"`
	AlreadyApplied bool   `json:"alreadyApplied"`
	Page           string `json:"page"`
}

// JobApplicants groups the applicants of one posting.
type JobApplicants struct {
	Job        Job         `json:"job"`
	Applicants []Applicant `json:"applicants"`
}
