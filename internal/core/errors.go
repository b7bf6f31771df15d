package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeInvalidMessage    = "invalid_message"
	ErrCodeUnknownConnection = "unknown_connection"
	ErrCodeInvalidRoom       = "invalid_room"
	ErrCodeRateLimited       = "rate_limited"
	ErrCodeInternal          = "internal_error"
)

var (
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrEmptyJoin           = errors.New("join requires a user id or a role")
	ErrInvalidRoom         = errors.New("invalid room")
	ErrUnknownEventKind    = errors.New("unknown event kind")

	// ErrSlowConsumer is recorded when a connection's outbound queue is full.
	ErrSlowConsumer = errors.New("outbound queue full")
	// ErrConnectionClosed is recorded when a connection went away before delivery.
	ErrConnectionClosed = errors.New("connection closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ErrorFor maps a domain error to the code reported to clients.
func ErrorFor(err error) *CoreError {
	var ce *CoreError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrEmptyJoin):
		return coreError(ErrCodeBadRequest, err.Error())
	case errors.Is(err, ErrInvalidRoom):
		return coreError(ErrCodeInvalidRoom, err.Error())
	case errors.Is(err, ErrUnknownConnection):
		return coreError(ErrCodeUnknownConnection, err.Error())
	default:
		return coreError(ErrCodeInternal, "internal error")
	}
}

// DeliveryFailure records that one connection did not receive an event.
// It never aborts delivery to the other subscribers.
type DeliveryFailure struct {
	Conn ConnID
	Err  error
}

func (f *DeliveryFailure) Error() string {
	return fmt.Sprintf("deliver to %s: %v", f.Conn, f.Err)
}

func (f *DeliveryFailure) Unwrap() error {
	return f.Err
}
