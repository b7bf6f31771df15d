package core

import "time"

// Priority ranks announcements and notifications.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ID identifies a campus record the way its producer wrote it: a string, or a
// number kept in its literal form so it is forwarded unchanged.
type ID struct {
	Text    string
	Numeric bool
}

// TextID returns a string id.
func TextID(s string) ID { return ID{Text: s} }

// NumberID returns a numeric id from its decimal literal, e.g. "7".
func NumberID(literal string) ID { return ID{Text: literal, Numeric: true} }

func (id ID) String() string { return id.Text }

// Announcement is a department-wide notice.
type Announcement struct {
	ID       ID
	Title    string
	Priority Priority
	Expiry   time.Time // zero when the announcement does not expire
	Content  string
}

// Assignment is coursework with a deadline.
type Assignment struct {
	ID       ID
	Title    string
	Deadline time.Time
}

// Submission references the assignment a student handed in.
type Submission struct {
	AssignmentID ID
}

// CampusEvent is a scheduled department event.
type CampusEvent struct {
	ID    ID
	Title string
	Date  time.Time
}

// ForumThread is a new discussion topic.
type ForumThread struct {
	ID       ID
	Topic    string
	Category string
}

// Project is a student project.
type Project struct {
	ID    ID
	Title string
}

// Resource is uploaded study material.
type Resource struct {
	ID          ID
	Name        string
	Type        string
	SubjectCode string
}

// Notification is a message addressed to one user.
type Notification struct {
	ID       ID
	Title    string
	Message  string
	Type     string
	Priority Priority
}
