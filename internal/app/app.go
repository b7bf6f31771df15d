package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/campus-realtime/internal/config"
	"github.com/vovakirdan/campus-realtime/internal/core"
	"github.com/vovakirdan/campus-realtime/internal/dedupe"
	"github.com/vovakirdan/campus-realtime/internal/proto"
	"github.com/vovakirdan/campus-realtime/internal/service/events"
	"github.com/vovakirdan/campus-realtime/internal/telemetry"
	transporthttp "github.com/vovakirdan/campus-realtime/internal/transport/http"
	transportnats "github.com/vovakirdan/campus-realtime/internal/transport/nats"
)

// App wires together core, ingress and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	events          *events.Service
	window          *dedupe.Window
	nc              *natsgo.Conn
	subscriber      *transportnats.Subscriber
	otelShutdown    telemetry.ShutdownFunc
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	otelShutdown, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	if cfg.OTLPEndpoint != "" {
		logger.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("telemetry export enabled")
	}

	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	window, err := dedupe.New(cfg.DedupeWindow, cfg.DedupeMaxBytes)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, fmt.Errorf("init dedupe window: %w", err)
	}

	hub := core.NewHub(proto.EncodeEvent, logger, metrics)
	svc := events.NewService(hub.Dispatcher(), window, logger, metrics)

	a := &App{
		server:          transporthttp.NewServer(hub, svc, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		events:          svc,
		window:          window,
		otelShutdown:    otelShutdown,
		log:             logger,
	}

	if cfg.NATSURL != "" {
		nc, err := transportnats.Connect(cfg.NATSURL, cfg.ServiceName, logger)
		if err != nil {
			a.cleanup()
			return nil, err
		}
		a.nc = nc
		a.subscriber = transportnats.NewSubscriber(nc, svc, cfg.NATSSubjectPrefix, logger)
	}

	return a, nil
}

// Hub exposes the composed core for embedding and tests.
func (a *App) Hub() *core.Hub { return a.hub }

// Events exposes the publish ingress.
func (a *App) Events() *events.Service { return a.events }

// Run starts the HTTP server and the NATS ingress and blocks until context
// cancellation or a fatal error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	if a.subscriber != nil {
		if err := a.subscriber.Start(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// cleanup releases ingress and telemetry resources.
func (a *App) cleanup() {
	if a.subscriber != nil {
		if err := a.subscriber.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to drain nats subscription")
		}
	}
	if a.nc != nil {
		a.nc.Close()
		a.log.Info().Msg("nats connection closed")
	}
	a.window.Close()

	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.log.Warn().Err(err).Msg("failed to flush telemetry")
		}
	}
}
