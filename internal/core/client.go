package core

import "sync"

// ConnID identifies a live connection.
type ConnID string

// DefaultClientBuffer is the outbound queue size used when none is configured.
const DefaultClientBuffer = 32

// Sink receives encoded frames for one connection. Deliver must not block.
type Sink interface {
	Deliver(frame []byte) error
}

// Client is the outbound side of a connection as seen by the core layer.
// The transport drains Frames and writes them to the socket.
type Client struct {
	ID     ConnID
	Frames chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with a bounded outbound queue.
func NewClient(id ConnID, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:     id,
		Frames: make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// Deliver enqueues a frame without blocking. A full queue yields
// ErrSlowConsumer, a closed client ErrConnectionClosed.
func (c *Client) Deliver(frame []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.Frames <- frame:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close marks the client as gone. Frames is left open so concurrent
// Deliver calls never panic.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
