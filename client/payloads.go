package client

import "github.com/vovakirdan/campus-realtime/internal/proto"

// Payload types accepted by Event.Decode, one per event kind.
type (
	Announcement = proto.AnnouncementData // announcement:new, announcement:updated
	Assignment   = proto.AssignmentData   // assignment:new
	Submission   = proto.SubmissionData   // submission:new
	CampusEvent  = proto.EventData        // event:new
	ForumThread  = proto.ForumData        // forum:new
	Project      = proto.ProjectData      // project:new
	Resource     = proto.ResourceData     // resource:new
	Notification = proto.NotificationData // notification:new
)

// RecordID is the id carried by every payload. It keeps the producer's
// choice of string or number.
type RecordID = proto.ID
