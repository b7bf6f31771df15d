package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/campus-realtime/internal/core"
	"github.com/vovakirdan/campus-realtime/internal/proto"
	"github.com/vovakirdan/campus-realtime/internal/service/events"
	"github.com/vovakirdan/campus-realtime/internal/telemetry"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	hub *core.Hub
	svc *events.Service
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, svc *events.Service, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub: hub,
		svc: svc,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RoomResponse is one live room.
type RoomResponse struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// MembersResponse lists the connections in a room.
type MembersResponse struct {
	Room    string   `json:"room"`
	Members []string `json:"members"`
}

// ConnectionRoomsResponse lists the rooms a connection is in.
type ConnectionRoomsResponse struct {
	ID    string   `json:"id"`
	Rooms []string `json:"rooms"`
}

// PublishEvent fans a producer event out to its target rooms.
// POST /api/events
func (h *APIHandlers) PublishEvent(c *gin.Context) {
	var env proto.PublishEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		h.log.Debug().Err(err).Msg("invalid publish request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ctx, span := telemetry.StartIngressSpan(c.Request.Context(), "http", env.Kind)
	defer span.End()

	req, err := events.RequestFromEnvelope(env)
	if err != nil {
		h.log.Debug().Err(err).Str("kind", env.Kind).Msg("rejected publish request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.svc.Publish(ctx, req)
	if err != nil {
		if errors.Is(err, events.ErrNoTarget) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Error().Err(err).Str("kind", env.Kind).Msg("failed to publish event")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusAccepted, events.Summary(res))
}

// ListRooms returns every room with at least one member.
// GET /api/rooms
func (h *APIHandlers) ListRooms(c *gin.Context) {
	stats := h.hub.Router().Rooms()
	response := make([]RoomResponse, 0, len(stats))
	for _, s := range stats {
		response = append(response, RoomResponse{Name: string(s.Name), Members: s.Members})
	}
	c.JSON(http.StatusOK, response)
}

// RoomMembers lists the connections subscribed to a room.
// GET /api/rooms/:room/members
func (h *APIHandlers) RoomMembers(c *gin.Context) {
	room, err := core.ParseRoom(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ids := h.hub.Router().MembersOf(room.Name())
	members := make([]string, 0, len(ids))
	for _, id := range ids {
		members = append(members, string(id))
	}
	c.JSON(http.StatusOK, MembersResponse{Room: string(room.Name()), Members: members})
}

// ConnectionRooms lists the rooms one connection has joined.
// GET /api/connections/:id/rooms
func (h *APIHandlers) ConnectionRooms(c *gin.Context) {
	id := c.Param("id")
	rooms, err := h.hub.Registry().JoinedRooms(core.ConnID(id))
	if err != nil {
		if errors.Is(err, core.ErrUnknownConnection) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "connection not found"})
			return
		}
		h.log.Error().Err(err).Str("conn_id", id).Msg("failed to list connection rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		names = append(names, string(r))
	}
	c.JSON(http.StatusOK, ConnectionRoomsResponse{ID: id, Rooms: names})
}
