package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/campus-realtime/internal/core"
	"github.com/vovakirdan/campus-realtime/internal/dedupe"
	"github.com/vovakirdan/campus-realtime/internal/proto"
)

func newHubWithMember(t *testing.T, userID, role string) (*core.Hub, *core.Client) {
	t.Helper()
	hub := core.NewHub(proto.EncodeEvent, nil, nil)
	c := core.NewClient("c1", 8)
	require.NoError(t, hub.Connect(context.Background(), c.ID, c))
	_, err := hub.Execute(c.ID, core.Command{Kind: core.CommandJoin, UserID: userID, Role: role})
	require.NoError(t, err)
	return hub, c
}

func TestServicePublishToRooms(t *testing.T) {
	req := require.New(t)
	hub, c := newHubWithMember(t, "1", "faculty")
	svc := NewService(hub.Dispatcher(), nil, nil, nil)

	res, err := svc.Publish(context.Background(), Request{
		Event:  core.ProjectCreated{Project: core.Project{ID: core.TextID("p1"), Title: "Compiler"}},
		Target: Target{Rooms: []core.Room{core.ByRole("faculty"), core.ByUser("1")}},
	})
	req.NoError(err)
	req.False(res.Duplicate)
	req.Equal([]core.ConnID{"c1"}, res.Delivered)
	req.Len(c.Frames, 1)
}

func TestServiceRejectsMissingTarget(t *testing.T) {
	hub, _ := newHubWithMember(t, "1", "")
	svc := NewService(hub.Dispatcher(), nil, nil, nil)

	_, err := svc.Publish(context.Background(), Request{
		Event:  core.ProjectCreated{Project: core.Project{ID: core.TextID("p1"), Title: "x"}},
		Target: Target{Rooms: []core.Room{core.ByUser("")}},
	})
	require.ErrorIs(t, err, ErrNoTarget)
}

func TestServiceSuppressesDuplicates(t *testing.T) {
	req := require.New(t)
	hub, c := newHubWithMember(t, "1", "")
	window, err := dedupe.New(time.Minute, 1<<16)
	req.NoError(err)
	defer window.Close()
	svc := NewService(hub.Dispatcher(), window, nil, nil)

	ev := core.NotificationSent{Notification: core.Notification{ID: core.TextID("n1"), Title: "Grade", Message: "Posted"}}
	first, err := svc.Publish(context.Background(), Request{Event: ev, Target: Target{Rooms: []core.Room{core.ByUser("1")}}})
	req.NoError(err)
	req.False(first.Duplicate)

	second, err := svc.Publish(context.Background(), Request{Event: ev, Target: Target{Rooms: []core.Room{core.ByUser("1")}}})
	req.NoError(err)
	req.True(second.Duplicate)
	req.Zero(second.Attempted())
	req.Len(c.Frames, 1)

	// the same event for another target is not a duplicate
	third, err := svc.Publish(context.Background(), Request{Event: ev, Target: Target{Broadcast: true}})
	req.NoError(err)
	req.False(third.Duplicate)
	req.Len(c.Frames, 2)
}

func TestServiceBroadcast(t *testing.T) {
	req := require.New(t)
	hub := core.NewHub(proto.EncodeEvent, nil, nil)
	idle := core.NewClient("idle", 4)
	req.NoError(hub.Connect(context.Background(), idle.ID, idle))
	svc := NewService(hub.Dispatcher(), nil, nil, nil)

	res, err := svc.Publish(context.Background(), Request{
		Event:  core.ResourcePublished{Resource: core.Resource{ID: core.TextID("r1"), Name: "OS notes"}},
		Target: Target{Broadcast: true},
	})
	req.NoError(err)
	req.Equal([]core.ConnID{"idle"}, res.Delivered)
}

func TestRequestFromEnvelope(t *testing.T) {
	req := require.New(t)

	r, err := RequestFromEnvelope(proto.PublishEnvelope{
		Kind:   "announcement:new",
		Rooms:  []string{"role:faculty"},
		UserID: "42",
		Role:   "HOD",
		Data:   json.RawMessage(`{"id":1,"title":"Exam Schedule"}`),
	})
	req.NoError(err)
	req.Equal(core.KindAnnouncementNew, r.Event.Kind())
	req.Equal([]core.Room{core.ByRole("faculty"), core.ByUser("42"), core.ByRole("hod")}, r.Target.Rooms)

	_, err = RequestFromEnvelope(proto.PublishEnvelope{Kind: "project:new", Data: json.RawMessage(`{"id":"p","title":"t"}`)})
	req.ErrorIs(err, ErrNoTarget)

	_, err = RequestFromEnvelope(proto.PublishEnvelope{Kind: "project:new", Rooms: []string{"lobby"}, Data: json.RawMessage(`{"id":"p","title":"t"}`)})
	req.ErrorIs(err, core.ErrInvalidRoom)

	_, err = RequestFromEnvelope(proto.PublishEnvelope{Kind: "chat:new", Broadcast: true, Data: json.RawMessage(`{}`)})
	req.ErrorIs(err, core.ErrUnknownEventKind)
}

func TestSummary(t *testing.T) {
	s := Summary(Result{DispatchResult: core.DispatchResult{
		Kind:      core.KindForumNew,
		Delivered: []core.ConnID{"a"},
		Failed:    []*core.DeliveryFailure{{Conn: "b", Err: core.ErrSlowConsumer}},
	}})

	require.Equal(t, proto.PublishSummary{
		Kind:      "forum:new",
		Delivered: []string{"a"},
		Failed:    map[string]string{"b": "outbound queue full"},
	}, s)
}
