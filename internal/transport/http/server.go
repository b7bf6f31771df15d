package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/campus-realtime/internal/config"
	"github.com/vovakirdan/campus-realtime/internal/core"
	"github.com/vovakirdan/campus-realtime/internal/service/events"
	"github.com/vovakirdan/campus-realtime/internal/telemetry"
)

// NewServer builds the HTTP server: health, the WebSocket endpoint and the REST API.
func NewServer(hub *core.Hub, svc *events.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           telemetry.HTTPMiddleware(NewRouter(hub, svc, cfg, logger), cfg.ServiceName),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires the gin engine without the telemetry wrapper.
func NewRouter(hub *core.Hub, svc *events.Service, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/health", healthHandler)
	r.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))

	api := NewAPIHandlers(hub, svc, logger)
	g := r.Group("/api")
	g.POST("/events", api.PublishEvent)
	g.GET("/rooms", api.ListRooms)
	g.GET("/rooms/:room/members", api.RoomMembers)
	g.GET("/connections/:id/rooms", api.ConnectionRooms)

	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
