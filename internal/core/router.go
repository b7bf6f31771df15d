package core

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// RoomStat is a snapshot of one live room.
type RoomStat struct {
	Name    RoomName
	Members int
}

// target pairs a resolved connection with its sink.
type target struct {
	id   ConnID
	sink Sink
}

// Router maps rooms to the connections subscribed to them. It works on the
// registry's state under the registry's lock.
type Router struct {
	reg *Registry
}

// NewRouter creates a router over the given registry.
func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// Join subscribes the connection to its user room and its role room, skipping
// whichever of the two is empty. It returns the rooms of this join.
func (rt *Router) Join(id ConnID, userID, role string) ([]RoomName, error) {
	rt.reg.mu.Lock()
	defer rt.reg.mu.Unlock()

	c, ok := rt.reg.conns[id]
	if !ok {
		return nil, ErrUnknownConnection
	}
	rooms := roomsFor(userID, role)
	if len(rooms) == 0 {
		return nil, ErrEmptyJoin
	}
	if u := strings.TrimSpace(userID); u != "" {
		c.userID = u
	}
	if r := strings.TrimSpace(role); r != "" {
		c.role = r
	}

	names := make([]RoomName, 0, len(rooms))
	for _, room := range rooms {
		rt.reg.addMemberLocked(c, room.Name())
		names = append(names, room.Name())
	}
	return names, nil
}

// Leave drops one membership. It is a no-op when the connection is not a member.
func (rt *Router) Leave(id ConnID, room RoomName) {
	rt.reg.mu.Lock()
	defer rt.reg.mu.Unlock()
	rt.reg.removeMemberLocked(id, room)
}

// MembersOf returns the room's subscribers, sorted. An empty room yields an
// empty slice.
func (rt *Router) MembersOf(room RoomName) []ConnID {
	rt.reg.mu.RLock()
	defer rt.reg.mu.RUnlock()

	members := lo.Keys(rt.reg.rooms[room])
	slices.Sort(members)
	return members
}

// Rooms returns every live room with its member count, sorted by name.
func (rt *Router) Rooms() []RoomStat {
	rt.reg.mu.RLock()
	defer rt.reg.mu.RUnlock()

	stats := make([]RoomStat, 0, len(rt.reg.rooms))
	for name, members := range rt.reg.rooms {
		stats = append(stats, RoomStat{Name: name, Members: len(members)})
	}
	slices.SortFunc(stats, func(a, b RoomStat) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return stats
}

// resolve returns the union of members across rooms, each connection once.
func (rt *Router) resolve(rooms []RoomName) []target {
	rt.reg.mu.RLock()
	defer rt.reg.mu.RUnlock()

	seen := make(map[ConnID]struct{})
	targets := make([]target, 0)
	for _, room := range lo.Uniq(rooms) {
		for id := range rt.reg.rooms[room] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if c, ok := rt.reg.conns[id]; ok {
				targets = append(targets, target{id: id, sink: c.sink})
			}
		}
	}
	return targets
}

// everyone returns every registered connection, joined or not.
func (rt *Router) everyone() []target {
	rt.reg.mu.RLock()
	defer rt.reg.mu.RUnlock()

	targets := make([]target, 0, len(rt.reg.conns))
	for id, c := range rt.reg.conns {
		targets = append(targets, target{id: id, sink: c.sink})
	}
	return targets
}
