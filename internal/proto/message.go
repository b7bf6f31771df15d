package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin  = "join"
	InboundTypeLeave = "leave"

	OutboundTypeConnected = "connected"
	OutboundTypeJoined    = "joined"
	OutboundTypeLeft      = "left"
	OutboundTypeEvent     = "event"
	OutboundTypeError     = "error"
)

// JoinData subscribes the connection to its user room and role room.
type JoinData struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// LeaveData drops one room membership.
type LeaveData struct {
	Room string `json:"room"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ConnectedData greets a freshly accepted connection with its id.
type ConnectedData struct {
	ID string `json:"id"`
}

// RoomsData lists the rooms affected by a join or leave.
type RoomsData struct {
	Rooms []string `json:"rooms"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// PublishEnvelope is what producers send to publish an event, over REST or NATS.
// Rooms, UserID and Role are unioned; Broadcast reaches every connection.
type PublishEnvelope struct {
	Kind      string          `json:"kind" binding:"required"`
	Rooms     []string        `json:"rooms,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Role      string          `json:"role,omitempty"`
	Broadcast bool            `json:"broadcast,omitempty"`
	Data      json.RawMessage `json:"data" binding:"required"`
}

// PublishSummary reports a publish back to the producer.
type PublishSummary struct {
	Kind      string            `json:"kind"`
	Delivered []string          `json:"delivered"`
	Failed    map[string]string `json:"failed"`
	Duplicate bool              `json:"duplicate,omitempty"`
}
