package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vovakirdan/campus-realtime/internal/proto"
)

// AnyKind subscribes a handler to every event kind.
const AnyKind = "*"

// Event is one domain event pushed by the server.
type Event struct {
	Kind string
	Data json.RawMessage
}

// Decode unmarshals the payload into one of the payload types, e.g. Announcement.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.Kind, err)
	}
	return nil
}

// ServerError is an error frame sent by the server in reply to a command.
type ServerError struct {
	Code string
	Msg  string
}

func (e *ServerError) Error() string {
	return e.Code + ": " + e.Msg
}

func fromProto(p *proto.Error) *ServerError {
	if p == nil {
		return &ServerError{Code: "unknown", Msg: "unknown error"}
	}
	return &ServerError{Code: p.Code, Msg: p.Msg}
}

// Subscription is a registered handler. Unsubscribe releases it; calling it
// more than once is harmless.
type Subscription struct {
	kind string
	id   uint64
	reg  *handlers
	once sync.Once
}

// Unsubscribe stops delivering events to the handler.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() { s.reg.remove(s.kind, s.id) })
}

// handlers routes events to subscribed callbacks by kind.
type handlers struct {
	mu     sync.RWMutex
	nextID uint64
	byKind map[string]map[uint64]func(Event)
}

func newHandlers() *handlers {
	return &handlers{byKind: make(map[string]map[uint64]func(Event))}
}

func (h *handlers) add(kind string, fn func(Event)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	if h.byKind[kind] == nil {
		h.byKind[kind] = make(map[uint64]func(Event))
	}
	h.byKind[kind][h.nextID] = fn
	return &Subscription{kind: kind, id: h.nextID, reg: h}
}

func (h *handlers) remove(kind string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byKind[kind], id)
	if len(h.byKind[kind]) == 0 {
		delete(h.byKind, kind)
	}
}

func (h *handlers) count(kind string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byKind[kind])
}

// dispatch calls handlers outside the lock so a handler may unsubscribe itself.
func (h *handlers) dispatch(ev Event) {
	h.mu.RLock()
	fns := make([]func(Event), 0, len(h.byKind[ev.Kind])+len(h.byKind[AnyKind]))
	for _, fn := range h.byKind[ev.Kind] {
		fns = append(fns, fn)
	}
	for _, fn := range h.byKind[AnyKind] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
