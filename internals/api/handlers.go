package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thebowwman/navplot/internals/auth"
	"github.com/thebowwman/navplot/internals/hub"
	"github.com/thebowwman/navplot/internals/route"
	"github.com/thebowwman/navplot/internals/store"
)

type createSessionReq struct {
	SpeedKnots *float64 `json:"speed_knots,omitempty"`
}

type createSessionResp struct {
	SessionID      string `json:"session_id"`
	NavigatorToken string `json:"navigator_token"`
	ViewerToken    string `json:"viewer_token"`
	WSURL          string `json:"ws_url"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionReq
	// an empty body is fine; it just means the default speed
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.String(http.StatusBadRequest, "bad json")
		return
	}

	speed := s.opts.DefaultSpeedKnots
	if req.SpeedKnots != nil {
		speed = *req.SpeedKnots
	}
	sess := s.sessions.Create(speed)

	nTok, err := s.tokens.MakeToken(sess.ID, auth.RoleNavigator)
	if err != nil {
		s.fail(c, err)
		return
	}
	vTok, err := s.tokens.MakeToken(sess.ID, auth.RoleViewer)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.log.Info("session created", slog.String("session", sess.ID), slog.Float64("speed_knots", speed))
	c.JSON(http.StatusOK, createSessionResp{
		SessionID:      sess.ID,
		NavigatorToken: nTok,
		ViewerToken:    vTok,
		WSURL:          "ws://" + c.Request.Host + "/v1/ws/" + sess.ID,
	})
}

// session authenticates the request against the :sessionID path parameter.
// It writes the error response itself and returns ok=false on failure.
func (s *Server) session(c *gin.Context, edit bool) (*store.Session, bool) {
	claims, err := s.tokens.ParseTokenFromRequest(c.Request)
	if err != nil {
		c.String(http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	id := c.Param("sessionID")
	if id != claims.SessionID {
		c.String(http.StatusForbidden, "session mismatch")
		return nil, false
	}
	if edit && !claims.CanEdit() {
		c.JSON(http.StatusForbidden, gin.H{"error": errReadOnly.Error()})
		return nil, false
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		c.Status(http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.session(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSessionView(sess.ID, sess.Route.Snapshot(), s.opts.Icons))
}

func (s *Server) handleEndSession(c *gin.Context) {
	sess, ok := s.session(c, true)
	if !ok {
		return
	}
	if err := s.sessions.Delete(sess.ID); err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	if h, ok := s.hubs.Lookup(sess.ID); ok {
		_ = h.Broadcast(hub.Message{Type: "session_ended"}, nil)
		s.hubs.Remove(sess.ID)
	}
	s.log.Info("session ended", slog.String("session", sess.ID))
	c.Status(http.StatusNoContent)
}

// handleEvent binds the request body as an event of the given type.
func (s *Server) handleEvent(typ string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.session(c, true)
		if !ok {
			return
		}
		var ev inputEvent
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.String(http.StatusBadRequest, "bad json")
			return
		}
		ev.Type = typ
		s.apply(c, sess, ev)
	}
}

func (s *Server) handleRemoveWaypoint(c *gin.Context) {
	sess, ok := s.session(c, true)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	s.apply(c, sess, inputEvent{Type: evRemoveWaypoint, Index: &idx})
}

func (s *Server) handleClear(c *gin.Context) {
	sess, ok := s.session(c, true)
	if !ok {
		return
	}
	s.apply(c, sess, inputEvent{Type: evClear})
}

func (s *Server) apply(c *gin.Context, sess *store.Session, ev inputEvent) {
	view, err := s.mutate(c.Request.Context(), sess, ev)
	if err != nil {
		s.log.Warn("event rejected",
			slog.String("session", sess.ID), slog.String("event", ev.Type), slog.Any("err", err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// mutate applies ev and publishes the result while holding the session
// lock, so clients never receive an older route after a newer one.
func (s *Server) mutate(ctx context.Context, sess *store.Session, ev inputEvent) (sessionView, error) {
	var view sessionView
	err := sess.Apply(func(rt *route.Route) error {
		return applyEvent(rt, ev)
	}, func(snap route.Snapshot) {
		view = s.publish(ctx, sess.ID, snap)
	})
	return view, err
}

// publish pushes snap to the session's websocket clients and to the event
// publisher, and returns the view that was sent.
func (s *Server) publish(ctx context.Context, sessionID string, snap route.Snapshot) sessionView {
	view := newSessionView(sessionID, snap, s.opts.Icons)

	if h, ok := s.hubs.Lookup(sessionID); ok {
		if err := h.Broadcast(hub.Message{Type: "route", Data: view}, nil); err != nil {
			s.log.Error("broadcast failed", slog.String("session", sessionID), slog.Any("err", err))
		}
	}
	if err := s.events.PublishRoute(ctx, sessionID, snap); err != nil {
		s.log.Warn("route publish failed", slog.String("session", sessionID), slog.Any("err", err))
	}

	s.log.Debug("route updated",
		slog.String("session", sessionID), slog.Uint64("version", snap.Version),
		slog.String("state", string(snap.State)), slog.Int("waypoints", len(snap.Waypoints)))
	return view
}

// joinHub returns the session's hub. It fails if the session ended while
// the hub was being looked up, so no hub outlives its session.
func (s *Server) joinHub(sessionID string) (*hub.SessionHub, bool) {
	h := s.hubs.GetOrCreateHub(sessionID)
	if _, ok := s.sessions.Get(sessionID); !ok {
		s.hubs.Remove(sessionID)
		return nil, false
	}
	return h, true
}

func (s *Server) fail(c *gin.Context, err error) {
	s.log.Error("request failed", slog.String("path", c.FullPath()), slog.Any("err", err))
	c.Status(http.StatusInternalServerError)
}
