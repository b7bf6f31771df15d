package nats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/campus-realtime/internal/core"
	"github.com/vovakirdan/campus-realtime/internal/log"
	"github.com/vovakirdan/campus-realtime/internal/proto"
	"github.com/vovakirdan/campus-realtime/internal/service/events"
)

func newTestHub(t *testing.T) (*core.Hub, *core.Client) {
	t.Helper()
	hub := core.NewHub(proto.EncodeEvent, nil, nil)
	c := core.NewClient("c1", 8)
	require.NoError(t, hub.Connect(context.Background(), c.ID, c))
	_, err := hub.Execute(c.ID, core.Command{Kind: core.CommandJoin, UserID: "1", Role: "Student"})
	require.NoError(t, err)
	return hub, c
}

func TestHandleEnvelope(t *testing.T) {
	req := require.New(t)
	hub, c := newTestHub(t)
	s := NewSubscriber(nil, events.NewService(hub.Dispatcher(), nil, nil, nil), "campus.events", nil)

	summary, err := s.handle(context.Background(), "campus.events.assignment:new",
		[]byte(`{"kind":"assignment:new","role":"student","data":{"id":3,"title":"Lab 2","deadline":"2026-11-01T10:00:00Z"}}`))
	req.NoError(err)
	req.Equal([]string{"c1"}, summary.Delivered)
	req.Len(c.Frames, 1)
}

func TestHandleTakesKindFromSubject(t *testing.T) {
	req := require.New(t)
	hub, _ := newTestHub(t)
	s := NewSubscriber(nil, events.NewService(hub.Dispatcher(), nil, nil, nil), "campus.events.", nil)

	req.Equal("campus.events.>", s.Subject())

	summary, err := s.handle(context.Background(), "campus.events.forum:new",
		[]byte(`{"userId":"1","data":{"id":"f1","topic":"Exams"}}`))
	req.NoError(err)
	req.Equal("forum:new", summary.Kind)
}

func TestHandleRejects(t *testing.T) {
	hub, _ := newTestHub(t)
	s := NewSubscriber(nil, events.NewService(hub.Dispatcher(), nil, nil, nil), "campus.events", nil)

	_, err := s.handle(context.Background(), "campus.events.x", []byte(`not json`))
	require.ErrorIs(t, err, proto.ErrInvalidPayload)

	_, err = s.handle(context.Background(), "campus.events.project:new", []byte(`{"data":{"id":1,"title":"x"}}`))
	require.ErrorIs(t, err, events.ErrNoTarget)
}

func TestSubscriberRequestReply(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	logger := log.Nop()
	nc, err := Connect(url, "campus-realtime-test", logger)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	hub, c := newTestHub(t)
	prefix := "campus.test." + t.Name()
	s := NewSubscriber(nc, events.NewService(hub.Dispatcher(), nil, nil, nil), prefix, logger)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	summary, err := Request(ctx, nc, prefix, proto.PublishEnvelope{
		Kind:   "notification:new",
		UserID: "1",
		Data:   []byte(`{"id":"n1","title":"Grades","message":"Posted"}`),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"c1"}, summary.Delivered)
	require.Len(t, c.Frames, 1)

	_, err = Request(ctx, nc, prefix, proto.PublishEnvelope{Kind: "chat:new", Broadcast: true, Data: []byte(`{}`)})
	require.Error(t, err)
}
