package core

import (
	"fmt"
	"strings"
)

// RoomName is the canonical key a room is tracked under, e.g. "user:42" or "role:faculty".
type RoomName string

// RoomKind tells how a room name is derived.
type RoomKind int

const (
	// RoomByUser scopes a room to a single user id.
	RoomByUser RoomKind = iota + 1
	// RoomByRole scopes a room to everyone holding a role.
	RoomByRole
)

const (
	userRoomPrefix = "user:"
	roleRoomPrefix = "role:"
)

// Room is a fan-out group keyed by a user id or a role.
type Room struct {
	Kind RoomKind
	Key  string
}

// ByUser returns the room of a single user.
func ByUser(userID string) Room {
	return Room{Kind: RoomByUser, Key: strings.TrimSpace(userID)}
}

// ByRole returns the room of a role. Roles are case-insensitive.
func ByRole(role string) Room {
	return Room{Kind: RoomByRole, Key: strings.ToLower(strings.TrimSpace(role))}
}

// Name maps the room to its canonical name. Invalid rooms map to "".
func (r Room) Name() RoomName {
	if r.Key == "" {
		return ""
	}
	switch r.Kind {
	case RoomByUser:
		return RoomName(userRoomPrefix + r.Key)
	case RoomByRole:
		return RoomName(roleRoomPrefix + r.Key)
	default:
		return ""
	}
}

// Valid reports whether the room has a known kind and a non-empty key.
func (r Room) Valid() bool {
	return r.Name() != ""
}

func (r Room) String() string {
	return string(r.Name())
}

// ParseRoom is the inverse of Room.Name.
func ParseRoom(name string) (Room, error) {
	name = strings.TrimSpace(name)
	switch {
	case strings.HasPrefix(name, userRoomPrefix):
		room := ByUser(strings.TrimPrefix(name, userRoomPrefix))
		if room.Valid() {
			return room, nil
		}
	case strings.HasPrefix(name, roleRoomPrefix):
		room := ByRole(strings.TrimPrefix(name, roleRoomPrefix))
		if room.Valid() {
			return room, nil
		}
	}
	return Room{}, fmt.Errorf("%w: %q", ErrInvalidRoom, name)
}

// roomsFor returns the rooms a join with the given identity subscribes to.
func roomsFor(userID, role string) []Room {
	rooms := make([]Room, 0, 2)
	if r := ByUser(userID); r.Valid() {
		rooms = append(rooms, r)
	}
	if r := ByRole(role); r.Valid() {
		rooms = append(rooms, r)
	}
	return rooms
}
