// Package client is the consumer side of the realtime hub: it connects over
// WebSocket, joins the user and role rooms, and hands pushed events to
// scoped subscriptions. A dropped connection is redialed with backoff and
// the last join is replayed.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/campus-realtime/internal/proto"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrClosed           = errors.New("client closed")
)

// wireFrame mirrors proto.Outbound with the payload left raw.
type wireFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

type session struct {
	ws      *websocket.Conn
	id      string
	replies chan wireFrame
	done    chan struct{}
	err     error
}

// Client is a handle to one logical connection. It is safe for concurrent use
// and meant to be passed explicitly to whatever consumes events.
type Client struct {
	cfg  Config
	log  *zerolog.Logger
	subs *handlers

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	state          ConnectionState
	sess           *session
	identity       *proto.JoinData
	left           map[string]struct{}
	onConnect      func(id string)
	onDisconnect   func(err error)
	onConnectError func(err error)

	cmdMu sync.Mutex
}

// New constructs a client. logger may be nil.
func New(cfg Config, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:    cfg,
		log:    logger,
		subs:   newHandlers(),
		ctx:    ctx,
		cancel: cancel,
		left:   make(map[string]struct{}),
	}
}

// OnConnect is called with the server-assigned connection id after every
// successful connect, including reconnects.
func (c *Client) OnConnect(fn func(id string)) {
	c.mu.Lock()
	c.onConnect = fn
	c.mu.Unlock()
}

// OnDisconnect is called when an established connection drops.
func (c *Client) OnDisconnect(fn func(err error)) {
	c.mu.Lock()
	c.onDisconnect = fn
	c.mu.Unlock()
}

// OnConnectError is called when a dial or reconnect attempt fails.
func (c *Client) OnConnectError(fn func(err error)) {
	c.mu.Lock()
	c.onConnectError = fn
	c.mu.Unlock()
}

// Subscribe registers fn for events of kind, or every kind with AnyKind.
// Subscriptions outlive reconnects; release them with Unsubscribe.
func (c *Client) Subscribe(kind string, fn func(Event)) *Subscription {
	return c.subs.add(kind, fn)
}

// State reports the connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ID is the server-assigned id of the current connection, empty when disconnected.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.id
}

// Connect dials the server and waits for its greeting.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	case StateConnecting, StateConnected, StateReconnecting:
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.mu.Unlock()

	sess, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		c.fireConnectError(err)
		return err
	}
	if !c.attach(sess) {
		return ErrClosed
	}
	go c.supervise(sess)
	return nil
}

// Join subscribes the connection to the rooms of userID and role. Either may
// be empty, not both. The join is replayed after every reconnect.
func (c *Client) Join(ctx context.Context, userID, role string) ([]string, error) {
	data := proto.JoinData{UserID: userID, Role: role}
	rooms, err := c.join(ctx, data)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.identity = &data
	c.left = make(map[string]struct{})
	c.mu.Unlock()
	return rooms, nil
}

// Leave drops one room, e.g. "role:faculty".
func (c *Client) Leave(ctx context.Context, room string) error {
	if _, err := c.command(ctx, proto.InboundTypeLeave, proto.LeaveData{Room: room}); err != nil {
		return err
	}
	c.mu.Lock()
	c.left[room] = struct{}{}
	c.mu.Unlock()
	return nil
}

// Close shuts the client down for good.
func (c *Client) Close() error {
	c.cancel()

	c.mu.Lock()
	c.state = StateClosed
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	if sess != nil {
		_ = sess.ws.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}

func (c *Client) join(ctx context.Context, data proto.JoinData) ([]string, error) {
	f, err := c.command(ctx, proto.InboundTypeJoin, data)
	if err != nil {
		return nil, err
	}
	var rooms proto.RoomsData
	if err := json.Unmarshal(f.Data, &rooms); err != nil {
		return nil, fmt.Errorf("decode joined: %w", err)
	}
	return rooms.Rooms, nil
}

// command sends one inbound message and waits for its reply. Commands are
// serialized so replies pair up with requests.
func (c *Client) command(ctx context.Context, typ string, data any) (wireFrame, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	sess := c.current()
	if sess == nil {
		return wireFrame{}, ErrNotConnected
	}
	for drained := false; !drained; {
		select {
		case <-sess.replies:
		default:
			drained = true
		}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return wireFrame{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	wctx, cancel := withTimeout(ctx, c.cfg.WriteTimeout)
	err = wsjson.Write(wctx, sess.ws, proto.Inbound{Type: typ, Data: payload})
	cancel()
	if err != nil {
		return wireFrame{}, fmt.Errorf("send %s: %w", typ, err)
	}

	rctx, cancel := withTimeout(ctx, c.cfg.ReplyTimeout)
	defer cancel()
	select {
	case f := <-sess.replies:
		if f.Type == proto.OutboundTypeError {
			return f, fromProto(f.Error)
		}
		return f, nil
	case <-sess.done:
		return wireFrame{}, ErrNotConnected
	case <-rctx.Done():
		return wireFrame{}, fmt.Errorf("await %s reply: %w", typ, rctx.Err())
	}
}

func (c *Client) dial(ctx context.Context) (*session, error) {
	if c.cfg.URL == "" {
		return nil, errors.New("empty URL")
	}
	dctx, cancel := withTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	ws, _, err := websocket.Dial(dctx, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	var hello wireFrame
	if err := wsjson.Read(dctx, ws, &hello); err != nil {
		ws.CloseNow()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	if hello.Type != proto.OutboundTypeConnected {
		ws.CloseNow()
		return nil, fmt.Errorf("unexpected greeting %q", hello.Type)
	}
	var data proto.ConnectedData
	if err := json.Unmarshal(hello.Data, &data); err != nil {
		ws.CloseNow()
		return nil, fmt.Errorf("decode greeting: %w", err)
	}

	return &session{
		ws:      ws,
		id:      data.ID,
		replies: make(chan wireFrame, 8),
		done:    make(chan struct{}),
	}, nil
}

// attach makes sess current and starts reading. It fails if Close won the race.
func (c *Client) attach(sess *session) bool {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		sess.ws.CloseNow()
		return false
	}
	c.sess = sess
	c.state = StateConnected
	fn := c.onConnect
	c.mu.Unlock()

	go c.readLoop(sess)
	c.log.Info().Str("conn_id", sess.id).Msg("connected")
	if fn != nil {
		fn(sess.id)
	}
	return true
}

func (c *Client) readLoop(sess *session) {
	defer close(sess.done)
	for {
		var f wireFrame
		if err := wsjson.Read(c.ctx, sess.ws, &f); err != nil {
			sess.err = err
			return
		}
		switch f.Type {
		case proto.OutboundTypeEvent:
			c.subs.dispatch(Event{Kind: f.Event, Data: f.Data})
		case proto.OutboundTypeJoined, proto.OutboundTypeLeft, proto.OutboundTypeError:
			select {
			case sess.replies <- f:
			default:
				c.log.Warn().Str("type", f.Type).Msg("dropping unclaimed reply")
			}
		default:
			c.log.Debug().Str("type", f.Type).Msg("ignoring frame")
		}
	}
}

// supervise waits for the session to end and redials until attempts run out.
func (c *Client) supervise(sess *session) {
	for {
		<-sess.done
		if c.ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		if c.sess == sess {
			c.sess = nil
		}
		fn := c.onDisconnect
		c.mu.Unlock()

		c.log.Warn().Err(sess.err).Str("conn_id", sess.id).Msg("disconnected")
		if fn != nil {
			fn(sess.err)
		}

		next := c.reconnect()
		if next == nil {
			return
		}
		sess = next
	}
}

func (c *Client) reconnect() *session {
	if c.cfg.ReconnectAttempts <= 0 {
		c.setState(StateDisconnected)
		return nil
	}
	c.setState(StateReconnecting)

	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		select {
		case <-time.After(c.cfg.backoff(attempt)):
		case <-c.ctx.Done():
			return nil
		}

		sess, err := c.dial(c.ctx)
		if err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("reconnect failed")
			c.fireConnectError(err)
			continue
		}
		if !c.attach(sess) {
			return nil
		}
		c.rejoin()
		return sess
	}

	c.log.Error().Int("attempts", c.cfg.ReconnectAttempts).Msg("giving up reconnecting")
	c.setState(StateDisconnected)
	return nil
}

// rejoin replays the last join and the leaves issued after it.
func (c *Client) rejoin() {
	c.mu.Lock()
	identity := c.identity
	left := make([]string, 0, len(c.left))
	for room := range c.left {
		left = append(left, room)
	}
	c.mu.Unlock()

	if identity == nil {
		return
	}
	if _, err := c.join(c.ctx, *identity); err != nil {
		c.log.Warn().Err(err).Msg("rejoin failed")
		return
	}
	for _, room := range left {
		if _, err := c.command(c.ctx, proto.InboundTypeLeave, proto.LeaveData{Room: room}); err != nil {
			c.log.Warn().Err(err).Str("room", room).Msg("re-leave failed")
		}
	}
}

func (c *Client) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *Client) setState(s ConnectionState) {
	c.mu.Lock()
	if c.state != StateClosed {
		c.state = s
	}
	c.mu.Unlock()
}

func (c *Client) fireConnectError(err error) {
	c.mu.Lock()
	fn := c.onConnectError
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
