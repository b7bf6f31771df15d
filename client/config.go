package client

import "time"

// Config controls how the client connects and reconnects.
type Config struct {
	URL string // ws://host:port/ws

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReplyTimeout     time.Duration

	// ReconnectAttempts is how many times a dropped connection is redialed; 0 disables.
	ReconnectAttempts int
	// ReconnectDelay is the first backoff step; each attempt doubles it up to MaxReconnectDelay.
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReplyTimeout:      10 * time.Second,
		ReconnectAttempts: 5,
		ReconnectDelay:    time.Second,
		MaxReconnectDelay: 30 * time.Second,
	}
}

func (c Config) backoff(attempt int) time.Duration {
	d := c.ReconnectDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if c.MaxReconnectDelay > 0 && d >= c.MaxReconnectDelay {
			return c.MaxReconnectDelay
		}
	}
	return d
}
