package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/vovakirdan/campus-realtime/internal/proto"
)

// SubjectFor is the subject an envelope of the given kind is published on.
func SubjectFor(prefix, kind string) string {
	return prefix + "." + kind
}

// Publish sends env fire-and-forget.
func Publish(nc *nats.Conn, prefix string, env proto.PublishEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := nc.Publish(SubjectFor(prefix, env.Kind), data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nc.Flush()
}

// Request sends env and waits for the server's publish summary.
func Request(ctx context.Context, nc *nats.Conn, prefix string, env proto.PublishEnvelope) (proto.PublishSummary, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return proto.PublishSummary{}, fmt.Errorf("marshal envelope: %w", err)
	}
	msg, err := nc.RequestWithContext(ctx, SubjectFor(prefix, env.Kind), data)
	if err != nil {
		return proto.PublishSummary{}, fmt.Errorf("nats request: %w", err)
	}

	var reply Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return proto.PublishSummary{}, fmt.Errorf("decode reply: %w", err)
	}
	if reply.Error != "" {
		return proto.PublishSummary{}, errors.New(reply.Error)
	}
	if reply.PublishSummary == nil {
		return proto.PublishSummary{}, errors.New("empty reply")
	}
	return *reply.PublishSummary, nil
}
