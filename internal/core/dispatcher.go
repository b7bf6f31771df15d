package core

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"

	"github.com/vovakirdan/campus-realtime/internal/telemetry"
)

// EncodeFunc serializes an event into the frame sent to every subscriber.
type EncodeFunc func(Event) ([]byte, error)

const (
	scopeRooms     = "rooms"
	scopeBroadcast = "broadcast"
)

// DispatchResult records what happened to each resolved connection.
type DispatchResult struct {
	Kind      EventKind
	Delivered []ConnID
	Failed    []*DeliveryFailure
	// Err is set when the event could not be encoded; nothing was sent.
	Err error
}

// Attempted returns the number of connections delivery was tried on.
func (r DispatchResult) Attempted() int {
	return len(r.Delivered) + len(r.Failed)
}

// Outcome reports whether id was delivered to, and whether it was part of the publish at all.
func (r DispatchResult) Outcome(id ConnID) (delivered, attempted bool) {
	if slices.Contains(r.Delivered, id) {
		return true, true
	}
	for _, f := range r.Failed {
		if f.Conn == id {
			return false, true
		}
	}
	return false, false
}

// Dispatcher fans events out to the members of target rooms. It holds no
// per-kind routing rules; callers pick the rooms.
type Dispatcher struct {
	router  *Router
	encode  EncodeFunc
	log     *zerolog.Logger
	metrics *telemetry.Metrics
}

// NewDispatcher creates a dispatcher. logger and metrics may be nil.
func NewDispatcher(router *Router, encode EncodeFunc, logger *zerolog.Logger, metrics *telemetry.Metrics) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{
		router:  router,
		encode:  encode,
		log:     logger,
		metrics: metrics,
	}
}

// Publish delivers ev once to every connection subscribed to any of rooms.
// Invalid rooms are skipped. Per-connection failures are recorded in the
// result and never stop delivery to the rest.
func (d *Dispatcher) Publish(ctx context.Context, ev Event, rooms ...Room) DispatchResult {
	names := make([]RoomName, 0, len(rooms))
	for _, room := range rooms {
		if !room.Valid() {
			d.log.Warn().Str("kind", string(ev.Kind())).Interface("room", room).Msg("skipping invalid target room")
			continue
		}
		names = append(names, room.Name())
	}

	ctx, span := telemetry.StartPublishSpan(ctx, string(ev.Kind()), scopeRooms, roomStrings(names))
	defer span.End()

	res := d.deliver(ctx, ev, d.router.resolve(names), scopeRooms)
	if res.Err != nil {
		span.SetStatus(codes.Error, res.Err.Error())
	}
	return res
}

// Broadcast delivers ev to every registered connection, joined or not.
func (d *Dispatcher) Broadcast(ctx context.Context, ev Event) DispatchResult {
	ctx, span := telemetry.StartPublishSpan(ctx, string(ev.Kind()), scopeBroadcast, nil)
	defer span.End()

	res := d.deliver(ctx, ev, d.router.everyone(), scopeBroadcast)
	if res.Err != nil {
		span.SetStatus(codes.Error, res.Err.Error())
	}
	return res
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event, targets []target, scope string) DispatchResult {
	res := DispatchResult{
		Kind:      ev.Kind(),
		Delivered: make([]ConnID, 0, len(targets)),
	}
	d.metrics.EventPublished(ctx, string(ev.Kind()), scope, len(targets))
	if len(targets) == 0 {
		return res
	}

	frame, err := d.encode(ev)
	if err != nil {
		d.log.Error().Err(err).Str("kind", string(ev.Kind())).Msg("encode event")
		res.Err = err
		return res
	}

	for _, t := range targets {
		if err := deliverOne(t, frame); err != nil {
			res.Failed = append(res.Failed, &DeliveryFailure{Conn: t.id, Err: err})
			d.log.Debug().Err(err).Str("kind", string(ev.Kind())).Str("conn_id", string(t.id)).Msg("delivery failed")
			continue
		}
		res.Delivered = append(res.Delivered, t.id)
	}

	d.metrics.EventDelivered(ctx, string(ev.Kind()), len(res.Delivered), len(res.Failed))
	d.log.Debug().
		Str("kind", string(ev.Kind())).
		Str("scope", scope).
		Int("delivered", len(res.Delivered)).
		Int("failed", len(res.Failed)).
		Msg("event dispatched")
	return res
}

// deliverOne turns a misbehaving sink into a recorded failure.
func deliverOne(t target, frame []byte) (err error) {
	if t.sink == nil {
		return ErrConnectionClosed
	}
	defer func() {
		if r := recover(); r != nil {
			err = ErrConnectionClosed
		}
	}()
	return t.sink.Deliver(frame)
}

func roomStrings(names []RoomName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
