// Package nats feeds producer events published on NATS subjects into the event service.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/campus-realtime/internal/proto"
	"github.com/vovakirdan/campus-realtime/internal/service/events"
	"github.com/vovakirdan/campus-realtime/internal/telemetry"
)

// Publisher is the part of the event service the subscriber drives.
type Publisher interface {
	Publish(ctx context.Context, req events.Request) (events.Result, error)
}

// Reply is sent back when a producer used request/reply.
type Reply struct {
	*proto.PublishSummary
	Error string `json:"error,omitempty"`
}

// Connect dials NATS with reconnects enabled.
func Connect(url, name string, logger *zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	logger.Info().Str("url", url).Msg("nats connected")
	return nc, nil
}

// Subscriber consumes <prefix>.> and publishes every envelope it receives.
type Subscriber struct {
	nc     *nats.Conn
	svc    Publisher
	prefix string
	log    *zerolog.Logger
	sub    *nats.Subscription
}

// NewSubscriber creates a subscriber; call Start to begin consuming.
func NewSubscriber(nc *nats.Conn, svc Publisher, prefix string, logger *zerolog.Logger) *Subscriber {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Subscriber{
		nc:     nc,
		svc:    svc,
		prefix: strings.TrimSuffix(prefix, "."),
		log:    logger,
	}
}

// Subject is the wildcard subject the subscriber listens on.
func (s *Subscriber) Subject() string {
	return s.prefix + ".>"
}

// Start subscribes. Messages are handled on the NATS client's delivery goroutine.
func (s *Subscriber) Start() error {
	sub, err := s.nc.Subscribe(s.Subject(), s.onMsg)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", s.Subject(), err)
	}
	s.sub = sub
	s.log.Info().Str("subject", s.Subject()).Msg("nats ingress started")
	return nil
}

// Close drains the subscription so in-flight messages finish.
func (s *Subscriber) Close() error {
	if s.sub == nil {
		return nil
	}
	if err := s.sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

func (s *Subscriber) onMsg(msg *nats.Msg) {
	summary, err := s.handle(context.Background(), msg.Subject, msg.Data)
	if err != nil {
		s.log.Warn().Err(err).Str("subject", msg.Subject).Msg("nats event rejected")
	}
	if msg.Reply == "" {
		return
	}

	reply := Reply{}
	if err != nil {
		reply.Error = err.Error()
	} else {
		reply.PublishSummary = &summary
	}
	data, mErr := json.Marshal(reply)
	if mErr != nil {
		s.log.Error().Err(mErr).Msg("marshal nats reply")
		return
	}
	if rErr := msg.Respond(data); rErr != nil {
		s.log.Warn().Err(rErr).Str("subject", msg.Subject).Msg("nats respond")
	}
}

// handle decodes one envelope. A missing kind is taken from the subject's last token.
func (s *Subscriber) handle(ctx context.Context, subject string, data []byte) (proto.PublishSummary, error) {
	var env proto.PublishEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return proto.PublishSummary{}, fmt.Errorf("%w: %v", proto.ErrInvalidPayload, err)
	}
	if env.Kind == "" {
		env.Kind = strings.TrimPrefix(subject, s.prefix+".")
	}

	ctx, span := telemetry.StartIngressSpan(ctx, "nats", env.Kind)
	defer span.End()

	req, err := events.RequestFromEnvelope(env)
	if err != nil {
		return proto.PublishSummary{}, err
	}
	res, err := s.svc.Publish(ctx, req)
	if err != nil {
		return proto.PublishSummary{}, err
	}
	return events.Summary(res), nil
}
