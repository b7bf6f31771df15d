package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHubJoinPublishAndLeave(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(testEncode, nil, nil)

	alice := NewClient("a", 8)
	bob := NewClient("b", 8)
	if err := hub.Connect(ctx, alice.ID, alice); err != nil {
		t.Fatalf("connect alice: %v", err)
	}
	if err := hub.Connect(ctx, bob.ID, bob); err != nil {
		t.Fatalf("connect bob: %v", err)
	}

	if _, err := hub.Execute(alice.ID, Command{Kind: CommandJoin, UserID: "1", Role: "Student"}); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if _, err := hub.Execute(bob.ID, Command{Kind: CommandJoin, UserID: "2", Role: "Student"}); err != nil {
		t.Fatalf("bob join: %v", err)
	}

	res := hub.Dispatcher().Publish(ctx, AssignmentPosted{Assignment{
		ID:       TextID("as1"),
		Title:    "Lab 3",
		Deadline: time.Date(2026, 11, 1, 23, 59, 0, 0, time.UTC),
	}}, ByRole("student"))
	if len(res.Delivered) != 2 {
		t.Fatalf("expected 2 deliveries, got %+v", res)
	}
	mustFrame(t, alice.Frames, KindAssignmentNew)
	mustFrame(t, bob.Frames, KindAssignmentNew)

	// Bob leaves the role room; only his user room still reaches him.
	if _, err := hub.Execute(bob.ID, Command{Kind: CommandLeave, Room: "role:student"}); err != nil {
		t.Fatalf("bob leave: %v", err)
	}
	res = hub.Dispatcher().Publish(ctx, SubmissionReceived{Submission{AssignmentID: TextID("as1")}}, ByRole("student"))
	if len(res.Delivered) != 1 || res.Delivered[0] != alice.ID {
		t.Fatalf("unexpected dispatch after leave: %+v", res)
	}
	mustFrame(t, alice.Frames, KindSubmissionNew)
	select {
	case f := <-bob.Frames:
		t.Fatalf("bob should not receive after leaving, got %s", f)
	default:
	}
}

func TestHubConnectDuplicate(t *testing.T) {
	hub := NewHub(testEncode, nil, nil)
	c := NewClient("dup", 1)

	if err := hub.Connect(context.Background(), c.ID, c); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	if err := hub.Connect(context.Background(), c.ID, c); !errors.Is(err, ErrDuplicateConnection) {
		t.Fatalf("expected duplicate connection error, got %v", err)
	}
}

func TestHubExecuteErrors(t *testing.T) {
	hub := NewHub(testEncode, nil, nil)
	c := NewClient("c", 1)
	if err := hub.Connect(context.Background(), c.ID, c); err != nil {
		t.Fatalf("connect: %v", err)
	}

	tests := []struct {
		name string
		id   ConnID
		cmd  Command
		code string
	}{
		{name: "empty join", id: c.ID, cmd: Command{Kind: CommandJoin}, code: ErrCodeBadRequest},
		{name: "unknown connection", id: "ghost", cmd: Command{Kind: CommandJoin, UserID: "1"}, code: ErrCodeUnknownConnection},
		{name: "invalid room", id: c.ID, cmd: Command{Kind: CommandLeave, Room: "lobby"}, code: ErrCodeInvalidRoom},
		{name: "unknown command", id: c.ID, cmd: Command{Kind: CommandKind(99)}, code: ErrCodeInvalidMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hub.Execute(tt.id, tt.cmd)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := ErrorFor(err).Code; got != tt.code {
				t.Fatalf("expected code %s, got %s (%v)", tt.code, got, err)
			}
		})
	}
}

func TestHubDisconnectDropsMemberships(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(testEncode, nil, nil)
	c := NewClient("c", 1)
	if err := hub.Connect(ctx, c.ID, c); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := hub.Execute(c.ID, Command{Kind: CommandJoin, UserID: "5", Role: "dean"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	hub.Disconnect(ctx, c.ID)
	hub.Disconnect(ctx, c.ID)

	if n := len(hub.Router().Rooms()); n != 0 {
		t.Fatalf("expected no rooms after disconnect, got %d", n)
	}
	if n := hub.Registry().Connections(); n != 0 {
		t.Fatalf("expected no connections, got %d", n)
	}
}
