package core

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// connection is the registry's record of one live connection.
type connection struct {
	id     ConnID
	userID string
	role   string
	rooms  map[RoomName]struct{}
	sink   Sink
}

// Registry tracks live connections and room membership. Connection state and
// the room index are guarded by one mutex so joins, leaves and disconnects
// are serialized against each other.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]*connection
	rooms map[RoomName]map[ConnID]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[ConnID]*connection),
		rooms: make(map[RoomName]map[ConnID]struct{}),
	}
}

// Register adds a connection with no rooms. sink receives frames published to it.
func (r *Registry) Register(id ConnID, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[id]; exists {
		return ErrDuplicateConnection
	}
	r.conns[id] = &connection{
		id:    id,
		rooms: make(map[RoomName]struct{}),
		sink:  sink,
	}
	return nil
}

// Unregister removes the connection and evicts it from every room. Unknown
// ids are ignored; the result reports whether anything was removed.
func (r *Registry) Unregister(id ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return false
	}
	for room := range c.rooms {
		r.removeMemberLocked(id, room)
	}
	delete(r.conns, id)
	return true
}

// JoinedRooms returns the rooms the connection is a member of, sorted.
func (r *Registry) JoinedRooms(id ConnID) ([]RoomName, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return nil, ErrUnknownConnection
	}
	rooms := lo.Keys(c.rooms)
	slices.Sort(rooms)
	return rooms, nil
}

// Identity returns the user id and role recorded by the last join.
func (r *Registry) Identity(id ConnID) (userID, role string, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return "", "", ErrUnknownConnection
	}
	return c.userID, c.role, nil
}

// Connections returns the number of live connections.
func (r *Registry) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) addMemberLocked(c *connection, room RoomName) bool {
	if _, joined := c.rooms[room]; joined {
		return false
	}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[ConnID]struct{})
		r.rooms[room] = members
	}
	members[c.id] = struct{}{}
	c.rooms[room] = struct{}{}
	return true
}

// removeMemberLocked drops one membership and forgets the room once empty.
func (r *Registry) removeMemberLocked(id ConnID, room RoomName) bool {
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, member := members[id]; !member {
		return false
	}
	delete(members, id)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	if c, ok := r.conns[id]; ok {
		delete(c.rooms, room)
	}
	return true
}
