package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/campus-realtime/client"
	"github.com/vovakirdan/campus-realtime/internal/config"
	"github.com/vovakirdan/campus-realtime/internal/core"
	ilog "github.com/vovakirdan/campus-realtime/internal/log"
	"github.com/vovakirdan/campus-realtime/internal/proto"
	"github.com/vovakirdan/campus-realtime/internal/service/events"
	transporthttp "github.com/vovakirdan/campus-realtime/internal/transport/http"
)

func startHub(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()
	cfg := config.Default()
	cfg.PingInterval = 0
	logger := ilog.Nop()
	hub := core.NewHub(proto.EncodeEvent, logger, nil)
	svc := events.NewService(hub.Dispatcher(), nil, logger, nil)
	ts := httptest.NewServer(transporthttp.NewRouter(hub, svc, &cfg, logger))
	t.Cleanup(ts.Close)
	return ts, hub
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoomsCommand(t *testing.T) {
	ts, hub := startHub(t)
	c := core.NewClient("conn-a", 4)
	require.NoError(t, hub.Connect(context.Background(), c.ID, c))
	_, err := hub.Execute(c.ID, core.Command{Kind: core.CommandJoin, UserID: "1", Role: "Faculty"})
	require.NoError(t, err)

	out, err := run(t, "rooms", "--server", ts.URL)
	require.NoError(t, err)
	require.Contains(t, out, "role:faculty")
	require.Contains(t, out, "user:1")

	out, err = run(t, "rooms", "role:faculty", "--server", ts.URL)
	require.NoError(t, err)
	require.Contains(t, out, "conn-a")
}

func TestPublishCommand(t *testing.T) {
	ts, hub := startHub(t)
	c := core.NewClient("conn-a", 4)
	require.NoError(t, hub.Connect(context.Background(), c.ID, c))
	_, err := hub.Execute(c.ID, core.Command{Kind: core.CommandJoin, Role: "student"})
	require.NoError(t, err)

	out, err := run(t, "publish", "--server", ts.URL,
		"--kind", "assignment:new", "--role", "Student",
		"--data", `{"id":9,"title":"Lab 3","deadline":"2026-11-20T12:00:00Z"}`)
	require.NoError(t, err)
	require.Contains(t, out, "assignment:new delivered to 1 connection(s), 0 failed")
	require.Len(t, c.Frames, 1)

	_, err = run(t, "publish", "--server", ts.URL, "--kind", "assignment:new", "--data", `{"id":9}`)
	require.Error(t, err)

	_, err = run(t, "publish", "--server", ts.URL, "--kind", "forum:new", "--broadcast", "--data", `not json`)
	require.Error(t, err)
}

func TestListenPrintsEvents(t *testing.T) {
	ts, hub := startHub(t)
	root := &rootOptions{server: ts.URL}

	cfg := client.DefaultConfig()
	cfg.URL = root.wsURL()
	c := client.New(cfg, nil)
	t.Cleanup(func() { _ = c.Close() })

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- listen(ctx, c, &listenOptions{role: "HOD", count: 1}, &out)
	}()

	require.Eventually(t, func() bool {
		return len(hub.Router().MembersOf("role:hod")) == 1
	}, 3*time.Second, 10*time.Millisecond)

	_, err := run(t, "publish", "--server", ts.URL, "--kind", "event:new", "--room", "role:hod",
		"--data", `{"id":"e1","title":"Convocation","date":"2026-12-01T09:00:00Z"}`)
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("listen did not return after one event")
	}
	require.True(t, strings.Contains(out.String(), "event:new"), out.String())
	require.Contains(t, out.String(), "Convocation")
}

func TestWSURL(t *testing.T) {
	require.Equal(t, "ws://localhost:4000/ws", (&rootOptions{server: "http://localhost:4000/"}).wsURL())
	require.Equal(t, "wss://hub.example.edu/ws", (&rootOptions{server: "https://hub.example.edu"}).wsURL())
}
