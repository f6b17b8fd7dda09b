package domain

import "time"

type EventType string

const (
	EventJobPublished         EventType = "job_published"
	EventJobDeleted           EventType = "job_deleted"
	EventApplicationSubmitted EventType = "application_submitted"
	EventCourseEnrolled       EventType = "course_enrolled"
	EventCoursePublished      EventType = "course_published"
	EventVideoCompleted       EventType = "video_completed"
)

// Event is a domain event published after a state change has been persisted.
type Event struct {
	Type       EventType         `json:"type"`
	Key        string            `json:"key"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}
