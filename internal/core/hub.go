package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/campus-realtime/internal/telemetry"
)

// Hub composes the registry, router and dispatcher. It is the single handle
// transports and producers share.
type Hub struct {
	registry   *Registry
	router     *Router
	dispatcher *Dispatcher
	log        *zerolog.Logger
	metrics    *telemetry.Metrics
}

// NewHub creates a hub whose dispatcher serializes events with encode.
// logger and metrics may be nil.
func NewHub(encode EncodeFunc, logger *zerolog.Logger, metrics *telemetry.Metrics) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	reg := NewRegistry()
	router := NewRouter(reg)
	return &Hub{
		registry:   reg,
		router:     router,
		dispatcher: NewDispatcher(router, encode, logger, metrics),
		log:        logger,
		metrics:    metrics,
	}
}

func (h *Hub) Registry() *Registry     { return h.registry }
func (h *Hub) Router() *Router         { return h.router }
func (h *Hub) Dispatcher() *Dispatcher { return h.dispatcher }

// Connect registers a new connection.
func (h *Hub) Connect(ctx context.Context, id ConnID, sink Sink) error {
	if err := h.registry.Register(id, sink); err != nil {
		return fmt.Errorf("register %s: %w", id, err)
	}
	h.metrics.ConnectionOpened(ctx)
	h.log.Info().Str("conn_id", string(id)).Msg("client connected")
	return nil
}

// Disconnect unregisters a connection and drops all its memberships.
func (h *Hub) Disconnect(ctx context.Context, id ConnID) {
	if !h.registry.Unregister(id) {
		return
	}
	h.metrics.ConnectionClosed(ctx)
	h.log.Info().Str("conn_id", string(id)).Msg("client disconnected")
}

// Execute applies a command issued by connection id and returns the rooms it touched.
func (h *Hub) Execute(id ConnID, cmd Command) ([]RoomName, error) {
	switch cmd.Kind {
	case CommandJoin:
		rooms, err := h.router.Join(id, cmd.UserID, cmd.Role)
		if err != nil {
			return nil, err
		}
		h.log.Info().
			Str("conn_id", string(id)).
			Str("user_id", cmd.UserID).
			Str("role", cmd.Role).
			Msg("client joined rooms")
		return rooms, nil
	case CommandLeave:
		room, err := ParseRoom(string(cmd.Room))
		if err != nil {
			return nil, err
		}
		if _, err := h.registry.JoinedRooms(id); err != nil {
			return nil, err
		}
		h.router.Leave(id, room.Name())
		h.log.Debug().Str("conn_id", string(id)).Str("room", string(room.Name())).Msg("client left room")
		return []RoomName{room.Name()}, nil
	default:
		return nil, coreError(ErrCodeInvalidMessage, "unknown command")
	}
}
