package core

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomNames(t *testing.T) {
	tests := []struct {
		name string
		room Room
		want RoomName
	}{
		{name: "user", room: ByUser("42"), want: "user:42"},
		{name: "role is lower-cased", room: ByRole("Faculty"), want: "role:faculty"},
		{name: "whitespace trimmed", room: ByRole("  DEAN "), want: "role:dean"},
		{name: "empty user", room: ByUser(""), want: ""},
		{name: "unknown kind", room: Room{Key: "x"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.room.Name())
			require.Equal(t, tt.want != "", tt.room.Valid())
		})
	}
}

func TestParseRoom(t *testing.T) {
	req := require.New(t)

	room, err := ParseRoom("role:Faculty")
	req.NoError(err)
	req.Equal(ByRole("faculty"), room)

	room, err = ParseRoom("user:abc123")
	req.NoError(err)
	req.Equal(ByUser("abc123"), room)

	for _, bad := range []string{"", "user:", "role:", "group:x", "faculty"} {
		_, err := ParseRoom(bad)
		req.ErrorIs(err, ErrInvalidRoom, bad)
	}
}

func TestRouterJoinUnknownConnection(t *testing.T) {
	router := NewRouter(NewRegistry())

	_, err := router.Join("ghost", "1", "student")
	require.ErrorIs(t, err, ErrUnknownConnection)

	_, err = router.Join("ghost", "", "")
	require.ErrorIs(t, err, ErrUnknownConnection)
}

func TestRouterJoinRequiresIdentity(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)
	require.NoError(t, reg.Register("c1", &recordingSink{}))

	_, err := router.Join("c1", " ", "")
	require.ErrorIs(t, err, ErrEmptyJoin)
}

func TestRouterJoinUserAndRole(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	router := NewRouter(reg)
	req.NoError(reg.Register("c1", &recordingSink{}))

	rooms, err := router.Join("c1", "42", "Faculty")
	req.NoError(err)
	req.Equal([]RoomName{"user:42", "role:faculty"}, rooms)
	req.Equal([]ConnID{"c1"}, router.MembersOf("user:42"))
	req.Equal([]ConnID{"c1"}, router.MembersOf("role:faculty"))

	// joining twice does not duplicate membership
	_, err = router.Join("c1", "42", "faculty")
	req.NoError(err)
	req.Len(router.MembersOf("role:faculty"), 1)
}

func TestRouterLeave(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	router := NewRouter(reg)
	req.NoError(reg.Register("c1", &recordingSink{}))
	_, err := router.Join("c1", "42", "student")
	req.NoError(err)

	router.Leave("c1", "role:student")
	router.Leave("c1", "role:student")
	router.Leave("c1", "role:never-joined")
	router.Leave("ghost", "user:42")

	req.Empty(router.MembersOf("role:student"))
	rooms, err := reg.JoinedRooms("c1")
	req.NoError(err)
	req.Equal([]RoomName{"user:42"}, rooms)
}

func TestRouterMembersOfEmptyRoom(t *testing.T) {
	router := NewRouter(NewRegistry())

	members := router.MembersOf("role:nobody")
	require.NotNil(t, members)
	require.Empty(t, members)
}

func TestRouterRoomsDropEmptyRooms(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	router := NewRouter(reg)
	req.NoError(reg.Register("c1", &recordingSink{}))
	req.NoError(reg.Register("c2", &recordingSink{}))
	_, err := router.Join("c1", "1", "student")
	req.NoError(err)
	_, err = router.Join("c2", "2", "student")
	req.NoError(err)

	req.Equal([]RoomStat{
		{Name: "role:student", Members: 2},
		{Name: "user:1", Members: 1},
		{Name: "user:2", Members: 1},
	}, router.Rooms())

	reg.Unregister("c1")
	router.Leave("c2", "user:2")

	req.Equal([]RoomStat{{Name: "role:student", Members: 1}}, router.Rooms())
}

// TestRouterMembershipMatchesModel replays random join/leave/unregister
// sequences against a plain map model of the membership rule.
func TestRouterMembershipMatchesModel(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	conns := []ConnID{"a", "b", "c", "d"}
	users := []string{"1", "2"}
	roles := []string{"student", "faculty"}

	for round := 0; round < 50; round++ {
		reg := NewRegistry()
		router := NewRouter(reg)
		model := make(map[RoomName]map[ConnID]bool)
		registered := make(map[ConnID]bool)

		for step := 0; step < 40; step++ {
			id := conns[rnd.Intn(len(conns))]
			switch rnd.Intn(4) {
			case 0:
				if err := reg.Register(id, &recordingSink{}); err == nil {
					registered[id] = true
				}
			case 1:
				user, role := users[rnd.Intn(len(users))], roles[rnd.Intn(len(roles))]
				rooms, err := router.Join(id, user, role)
				if !registered[id] {
					require.ErrorIs(t, err, ErrUnknownConnection)
					continue
				}
				require.NoError(t, err)
				for _, room := range rooms {
					if model[room] == nil {
						model[room] = make(map[ConnID]bool)
					}
					model[room][id] = true
				}
			case 2:
				room := ByRole(roles[rnd.Intn(len(roles))]).Name()
				router.Leave(id, room)
				delete(model[room], id)
			case 3:
				reg.Unregister(id)
				delete(registered, id)
				for _, members := range model {
					delete(members, id)
				}
			}

			for _, name := range []RoomName{"user:1", "user:2", "role:student", "role:faculty"} {
				want := make([]ConnID, 0)
				for id := range model[name] {
					want = append(want, id)
				}
				slices.Sort(want)
				require.Equal(t, want, router.MembersOf(name), fmt.Sprintf("round %d step %d room %s", round, step, name))
			}
		}
	}
}

func TestRouterConcurrentJoinsAreNotLost(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	router := NewRouter(reg)

	const n = 64
	for i := range n {
		req.NoError(reg.Register(ConnID(fmt.Sprintf("c%d", i)), &recordingSink{}))
	}

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(id ConnID) {
			defer wg.Done()
			_, err := router.Join(id, "", "faculty")
			req.NoError(err)
		}(ConnID(fmt.Sprintf("c%d", i)))
	}
	wg.Wait()

	req.Len(router.MembersOf("role:faculty"), n)
}
