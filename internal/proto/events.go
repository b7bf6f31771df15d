package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/campus-realtime/internal/core"
)

// ErrInvalidPayload is returned when event data is missing or fails validation.
var ErrInvalidPayload = errors.New("invalid event payload")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ID is a record id on the wire. It accepts JSON strings and numbers and
// writes back the same kind of token it was given.
type ID core.ID

func (id ID) MarshalJSON() ([]byte, error) {
	if id.Numeric {
		return []byte(id.Text), nil
	}
	return json.Marshal(id.Text)
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(core.TextID(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(core.NumberID(n.String()))
	return nil
}

// AnnouncementData is the payload of announcement:new and announcement:updated.
type AnnouncementData struct {
	ID       ID         `json:"id" validate:"required"`
	Title    string     `json:"title" validate:"required"`
	Priority string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Expiry   *time.Time `json:"expiry,omitempty"`
	Content  string     `json:"content,omitempty"`
}

// AssignmentData is the payload of assignment:new.
type AssignmentData struct {
	ID       ID        `json:"id" validate:"required"`
	Title    string    `json:"title" validate:"required"`
	Deadline time.Time `json:"deadline" validate:"required"`
}

// SubmissionData is the payload of submission:new.
type SubmissionData struct {
	AssignmentID ID `json:"assignmentId" validate:"required"`
}

// EventData is the payload of event:new.
type EventData struct {
	ID    ID        `json:"id" validate:"required"`
	Title string    `json:"title" validate:"required"`
	Date  time.Time `json:"date" validate:"required"`
}

// ForumData is the payload of forum:new.
type ForumData struct {
	ID       ID     `json:"id" validate:"required"`
	Topic    string `json:"topic" validate:"required"`
	Category string `json:"category,omitempty"`
}

// ProjectData is the payload of project:new.
type ProjectData struct {
	ID    ID     `json:"id" validate:"required"`
	Title string `json:"title" validate:"required"`
}

// ResourceData is the payload of resource:new.
type ResourceData struct {
	ID          ID     `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type,omitempty"`
	SubjectCode string `json:"subjectCode,omitempty"`
}

// NotificationData is the payload of notification:new.
type NotificationData struct {
	ID       ID     `json:"id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Type     string `json:"type,omitempty"`
	Priority string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

// EncodeEvent renders ev as the outbound frame sent to subscribers.
func EncodeEvent(ev core.Event) ([]byte, error) {
	data, err := eventData(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Outbound{
		Type:  OutboundTypeEvent,
		Event: string(ev.Kind()),
		Data:  data,
	})
}

func eventData(ev core.Event) (any, error) {
	switch e := ev.(type) {
	case core.AnnouncementPosted:
		return announcementData(e.Announcement), nil
	case core.AnnouncementUpdated:
		return announcementData(e.Announcement), nil
	case core.AssignmentPosted:
		return AssignmentData{ID: ID(e.ID), Title: e.Title, Deadline: e.Deadline}, nil
	case core.SubmissionReceived:
		return SubmissionData{AssignmentID: ID(e.AssignmentID)}, nil
	case core.EventScheduled:
		return EventData{ID: ID(e.ID), Title: e.Title, Date: e.Date}, nil
	case core.ForumThreadOpened:
		return ForumData{ID: ID(e.ID), Topic: e.Topic, Category: e.Category}, nil
	case core.ProjectCreated:
		return ProjectData{ID: ID(e.ID), Title: e.Title}, nil
	case core.ResourcePublished:
		return ResourceData{ID: ID(e.ID), Name: e.Name, Type: e.Type, SubjectCode: e.SubjectCode}, nil
	case core.NotificationSent:
		return NotificationData{
			ID:       ID(e.ID),
			Title:    e.Title,
			Message:  e.Message,
			Type:     e.Type,
			Priority: string(e.Priority),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %T", core.ErrUnknownEventKind, ev)
	}
}

func announcementData(a core.Announcement) AnnouncementData {
	d := AnnouncementData{
		ID:       ID(a.ID),
		Title:    a.Title,
		Priority: string(a.Priority),
		Content:  a.Content,
	}
	if !a.Expiry.IsZero() {
		expiry := a.Expiry
		d.Expiry = &expiry
	}
	return d
}

// DecodeEvent builds the typed event for kind from its JSON data.
func DecodeEvent(kind string, raw json.RawMessage) (core.Event, error) {
	switch k := core.EventKind(kind); k {
	case core.KindAnnouncementNew, core.KindAnnouncementUpdated:
		var d AnnouncementData
		if err := decodeData(raw, &d); err != nil {
			return nil, err
		}
		a := core.Announcement{
			ID:       core.ID(d.ID),
			Title:    d.Title,
			Priority: core.Priority(d.Priority),
			Content:  d.Content,
		}
		if d.Expiry != nil {
			a.Expiry = *d.Expiry
		}
		if k == core.KindAnnouncementUpdated {
			return core.AnnouncementUpdated{Announcement: a}, nil
		}
		return core.AnnouncementPosted{Announcement: a}, nil
	case core.KindAssignmentNew:
		var d AssignmentData
		if err := decodeData(raw, &d); err != nil {
			return nil, err
		}
		return core.AssignmentPosted{Assignment: core.Assignment{ID: core.ID(d.ID), Title: d.Title, Deadline: d.Deadline}}, nil
	case core.KindSubmissionNew:
		var d SubmissionData
		if err := decodeData(raw, &d); err != nil {
			return nil, err
		}
		return core.SubmissionReceived{Submission: core.Submission{AssignmentID: core.ID(d.AssignmentID)}}, nil
	case core.KindEventNew:
		var d EventData
		if err := decodeData(raw, &d); err != nil {
			return nil, err
		}
		return core.EventScheduled{CampusEvent: core.CampusEvent{ID: core.ID(d.ID), Title: d.Title, Date: d.Date}}, nil
	case core.KindForumNew:
		var d ForumData
		if err := decodeData(raw, &d); err != nil {
			return nil, err
		}
		return core.ForumThreadOpened{ForumThread: core.ForumThread{ID: core.ID(d.ID), Topic: d.Topic, Category: d.Category}}, nil
	case core.KindProjectNew:
		var d ProjectData
		if err := decodeData(raw, &d); err != nil {
			return nil, err
		}
		return core.ProjectCreated{Project: core.Project{ID: core.ID(d.ID), Title: d.Title}}, nil
	case core.KindResourceNew:
		var d ResourceData
		if err := decodeData(raw, &d); err != nil {
			return nil, err
		}
		return core.ResourcePublished{Resource: core.Resource{
			ID:          core.ID(d.ID),
			Name:        d.Name,
			Type:        d.Type,
			SubjectCode: d.SubjectCode,
		}}, nil
	case core.KindNotificationNew:
		var d NotificationData
		if err := decodeData(raw, &d); err != nil {
			return nil, err
		}
		return core.NotificationSent{Notification: core.Notification{
			ID:       core.ID(d.ID),
			Title:    d.Title,
			Message:  d.Message,
			Type:     d.Type,
			Priority: core.Priority(d.Priority),
		}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownEventKind, kind)
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fmt.Errorf("%w: missing data", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
