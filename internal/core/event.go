package core

// EventKind names a domain event on the wire.
type EventKind string

const (
	// KindAnnouncementNew notifies about a newly posted announcement.
	KindAnnouncementNew EventKind = "announcement:new"
	// KindAnnouncementUpdated notifies about an edited announcement.
	KindAnnouncementUpdated EventKind = "announcement:updated"
	// KindAssignmentNew notifies about new coursework.
	KindAssignmentNew EventKind = "assignment:new"
	// KindSubmissionNew notifies faculty about a handed-in assignment.
	KindSubmissionNew EventKind = "submission:new"
	// KindEventNew notifies about a scheduled department event.
	KindEventNew EventKind = "event:new"
	// KindForumNew notifies about a new forum thread.
	KindForumNew EventKind = "forum:new"
	// KindProjectNew notifies about a new project.
	KindProjectNew EventKind = "project:new"
	// KindResourceNew notifies about uploaded study material.
	KindResourceNew EventKind = "resource:new"
	// KindNotificationNew delivers a personal notification.
	KindNotificationNew EventKind = "notification:new"
)

var eventKinds = []EventKind{
	KindAnnouncementNew,
	KindAnnouncementUpdated,
	KindAssignmentNew,
	KindSubmissionNew,
	KindEventNew,
	KindForumNew,
	KindProjectNew,
	KindResourceNew,
	KindNotificationNew,
}

// EventKinds lists every kind the core can dispatch.
func EventKinds() []EventKind {
	out := make([]EventKind, len(eventKinds))
	copy(out, eventKinds)
	return out
}

// Valid reports whether k is one of the known kinds.
func (k EventKind) Valid() bool {
	for _, known := range eventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Event is a domain event pushed to subscribers. The set of implementations
// is closed; values are never mutated after construction.
type Event interface {
	Kind() EventKind
	event()
}

// AnnouncementPosted is published as announcement:new.
type AnnouncementPosted struct{ Announcement }

// AnnouncementUpdated is published as announcement:updated.
type AnnouncementUpdated struct{ Announcement }

// AssignmentPosted is published as assignment:new.
type AssignmentPosted struct{ Assignment }

// SubmissionReceived is published as submission:new.
type SubmissionReceived struct{ Submission }

// EventScheduled is published as event:new.
type EventScheduled struct{ CampusEvent }

// ForumThreadOpened is published as forum:new.
type ForumThreadOpened struct{ ForumThread }

// ProjectCreated is published as project:new.
type ProjectCreated struct{ Project }

// ResourcePublished is published as resource:new.
type ResourcePublished struct{ Resource }

// NotificationSent is published as notification:new.
type NotificationSent struct{ Notification }

func (AnnouncementPosted) Kind() EventKind  { return KindAnnouncementNew }
func (AnnouncementUpdated) Kind() EventKind { return KindAnnouncementUpdated }
func (AssignmentPosted) Kind() EventKind    { return KindAssignmentNew }
func (SubmissionReceived) Kind() EventKind  { return KindSubmissionNew }
func (EventScheduled) Kind() EventKind      { return KindEventNew }
func (ForumThreadOpened) Kind() EventKind   { return KindForumNew }
func (ProjectCreated) Kind() EventKind      { return KindProjectNew }
func (ResourcePublished) Kind() EventKind   { return KindResourceNew }
func (NotificationSent) Kind() EventKind    { return KindNotificationNew }

func (AnnouncementPosted) event()  {}
func (AnnouncementUpdated) event() {}
func (AssignmentPosted) event()    {}
func (SubmissionReceived) event()  {}
func (EventScheduled) event()      {}
func (ForumThreadOpened) event()   {}
func (ProjectCreated) event()      {}
func (ResourcePublished) event()   {}
func (NotificationSent) event()    {}
