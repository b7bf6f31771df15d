// Package events is the ingress every producer publishes domain events through.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/campus-realtime/internal/core"
	"github.com/vovakirdan/campus-realtime/internal/dedupe"
	"github.com/vovakirdan/campus-realtime/internal/proto"
	"github.com/vovakirdan/campus-realtime/internal/telemetry"
)

// ErrNoTarget is returned when a request names neither rooms nor a broadcast.
var ErrNoTarget = errors.New("publish needs at least one room or broadcast")

// Dispatcher is the subset of core.Dispatcher the service drives.
type Dispatcher interface {
	Publish(ctx context.Context, ev core.Event, rooms ...core.Room) core.DispatchResult
	Broadcast(ctx context.Context, ev core.Event) core.DispatchResult
}

// Target selects who receives an event.
type Target struct {
	Rooms     []core.Room
	Broadcast bool
}

// Request is one event to publish.
type Request struct {
	Event  core.Event
	Target Target
}

// Result is the dispatch outcome plus whether the event was suppressed.
type Result struct {
	core.DispatchResult
	Duplicate bool
}

// Service validates targets, suppresses duplicates and dispatches.
type Service struct {
	dispatcher Dispatcher
	window     *dedupe.Window
	log        *zerolog.Logger
	metrics    *telemetry.Metrics
}

// NewService creates the event service. window, logger and metrics may be nil.
func NewService(dispatcher Dispatcher, window *dedupe.Window, logger *zerolog.Logger, metrics *telemetry.Metrics) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		dispatcher: dispatcher,
		window:     window,
		log:        logger,
		metrics:    metrics,
	}
}

// Publish dispatches req. Per-connection failures are in the result, not the error.
func (s *Service) Publish(ctx context.Context, req Request) (Result, error) {
	if req.Event == nil {
		return Result{}, fmt.Errorf("%w: missing event", proto.ErrInvalidPayload)
	}
	rooms := lo.Filter(req.Target.Rooms, func(r core.Room, _ int) bool { return r.Valid() })
	if len(rooms) == 0 && !req.Target.Broadcast {
		return Result{}, ErrNoTarget
	}

	if s.window != nil {
		key, err := dedupeKey(req.Event, rooms, req.Target.Broadcast)
		if err != nil {
			return Result{}, fmt.Errorf("dedupe key: %w", err)
		}
		if s.window.Seen(key) {
			s.metrics.EventSuppressed(ctx, string(req.Event.Kind()))
			s.log.Info().Str("kind", string(req.Event.Kind())).Msg("duplicate event suppressed")
			return Result{DispatchResult: core.DispatchResult{Kind: req.Event.Kind()}, Duplicate: true}, nil
		}
	}

	var res core.DispatchResult
	if req.Target.Broadcast {
		res = s.dispatcher.Broadcast(ctx, req.Event)
	} else {
		res = s.dispatcher.Publish(ctx, req.Event, rooms...)
	}
	if res.Err != nil {
		return Result{DispatchResult: res}, fmt.Errorf("dispatch %s: %w", req.Event.Kind(), res.Err)
	}

	s.log.Info().
		Str("kind", string(req.Event.Kind())).
		Bool("broadcast", req.Target.Broadcast).
		Int("delivered", len(res.Delivered)).
		Int("failed", len(res.Failed)).
		Msg("event published")
	return Result{DispatchResult: res}, nil
}

// RequestFromEnvelope decodes a producer envelope into a typed request.
func RequestFromEnvelope(env proto.PublishEnvelope) (Request, error) {
	ev, err := proto.DecodeEvent(env.Kind, env.Data)
	if err != nil {
		return Request{}, err
	}

	target := Target{Broadcast: env.Broadcast}
	for _, name := range env.Rooms {
		room, err := core.ParseRoom(name)
		if err != nil {
			return Request{}, err
		}
		target.Rooms = append(target.Rooms, room)
	}
	if r := core.ByUser(env.UserID); r.Valid() {
		target.Rooms = append(target.Rooms, r)
	}
	if r := core.ByRole(env.Role); r.Valid() {
		target.Rooms = append(target.Rooms, r)
	}
	if len(target.Rooms) == 0 && !target.Broadcast {
		return Request{}, ErrNoTarget
	}
	return Request{Event: ev, Target: target}, nil
}

// Summary renders a result for producers.
func Summary(res Result) proto.PublishSummary {
	out := proto.PublishSummary{
		Kind:      string(res.Kind),
		Delivered: make([]string, 0, len(res.Delivered)),
		Failed:    make(map[string]string, len(res.Failed)),
		Duplicate: res.Duplicate,
	}
	for _, id := range res.Delivered {
		out.Delivered = append(out.Delivered, string(id))
	}
	for _, f := range res.Failed {
		out.Failed[string(f.Conn)] = f.Err.Error()
	}
	return out
}

func dedupeKey(ev core.Event, rooms []core.Room, broadcast bool) (string, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	names := lo.Map(rooms, func(r core.Room, _ int) string { return string(r.Name()) })
	slices.Sort(names)
	names = slices.Compact(names)

	parts := [][]byte{[]byte(ev.Kind()), []byte(strconv.FormatBool(broadcast)), payload}
	for _, n := range names {
		parts = append(parts, []byte(n))
	}
	return dedupe.Key(parts...), nil
}
