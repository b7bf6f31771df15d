package client

// ConnectionState represents the current state of the WebSocket connection.
type ConnectionState int

const (
	// StateDisconnected means the client is not connected and will not retry.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the first dial is in progress.
	StateConnecting

	// StateConnected means the server greeted the client.
	StateConnected

	// StateReconnecting means the connection dropped and the client is redialing.
	StateReconnecting

	// StateClosed means Close was called.
	StateClosed
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
