package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thebowwman/navplot/internals/auth"
	"github.com/thebowwman/navplot/internals/events"
	"github.com/thebowwman/navplot/internals/hub"
	"github.com/thebowwman/navplot/internals/logging"
	"github.com/thebowwman/navplot/internals/store"
)

type Options struct {
	DefaultSpeedKnots  float64
	Icons              MarkerIcons
	GeolocationTimeout time.Duration
}

// Server holds everything the handlers share.
type Server struct {
	opts     Options
	tokens   *auth.Tokens
	sessions *store.SessionStore
	hubs     *hub.Registry
	events   events.Publisher
	log      *logging.Logger
}

func NewServer(opts Options, tokens *auth.Tokens, pub events.Publisher, lg *logging.Logger) *Server {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Server{
		opts:     opts,
		tokens:   tokens,
		sessions: store.NewSessionStore(),
		hubs:     hub.NewRegistry(),
		events:   pub,
		log:      lg,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.Status(200) })

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions", s.handleCreateSession)
		v1.GET("/ws/:sessionID", s.handleWS)
		v1.GET("/sessions/:sessionID", s.handleGetSession)
		v1.DELETE("/sessions/:sessionID", s.handleEndSession)
		v1.POST("/sessions/:sessionID/waypoints", s.handleEvent(evMapClick))
		v1.DELETE("/sessions/:sessionID/waypoints", s.handleClear)
		v1.DELETE("/sessions/:sessionID/waypoints/:index", s.handleRemoveWaypoint)
		v1.POST("/sessions/:sessionID/geolocation", s.handleEvent(evGeolocationFix))
		v1.POST("/sessions/:sessionID/manual", s.handleEvent(evManualSubmit))
		v1.PUT("/sessions/:sessionID/speed", s.handleEvent(evSetSpeed))
	}
}
