package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/campus-realtime/internal/proto"
)

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run joins as a faculty member over a raw socket, publishes an announcement
// to role:faculty through the REST API and waits for it to come back.
func run() error {
	addr := flag.String("addr", "ws://localhost:4000/ws", "WebSocket address")
	api := flag.String("api", "http://localhost:4000", "REST API base URL")
	user := flag.String("user", "1", "user id to join with")
	role := flag.String("role", "Faculty", "role to join with")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	hello, err := read(ctx, conn)
	if err != nil {
		return err
	}
	fmt.Printf("greeting: %s %s\n", hello.Type, hello.Data)

	joinPayload, _ := json.Marshal(proto.JoinData{UserID: *user, Role: *role})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	joined, err := read(ctx, conn)
	if err != nil {
		return err
	}
	if joined.Type != proto.OutboundTypeJoined {
		return fmt.Errorf("join rejected: %+v", joined.Error)
	}
	fmt.Printf("joined: %s\n", joined.Data)

	env := proto.PublishEnvelope{
		Kind: "announcement:new",
		Role: *role,
		Data: json.RawMessage(`{"id":1,"title":"Exam Schedule","priority":"high"}`),
	}
	body, _ := json.Marshal(env)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *api+"/api/events", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("publish: status %d", resp.StatusCode)
	}

	ev, err := read(ctx, conn)
	if err != nil {
		return err
	}
	if ev.Type != proto.OutboundTypeEvent || ev.Event != env.Kind {
		return fmt.Errorf("unexpected frame: type=%s event=%s", ev.Type, ev.Event)
	}
	fmt.Printf("received %s: %s\n", ev.Event, ev.Data)
	return nil
}

func read(ctx context.Context, conn *websocket.Conn) (frame, error) {
	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		return f, fmt.Errorf("read: %w", err)
	}
	return f, nil
}
