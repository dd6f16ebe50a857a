package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/thebowwman/navplot/internals/hub"
)

type errorBody struct {
	Error string `json:"error"`
	Event string `json:"event,omitempty"`
}

func (s *Server) handleWS(c *gin.Context) {
	// 1) Accept JWT from Authorization header OR from `?token=` for browser clients
	claims, err := s.tokens.ParseTokenFromRequest(c.Request)
	if err != nil {
		if tok := c.Query("token"); tok != "" {
			claims, err = s.tokens.ParseToken(tok)
		}
	}
	if err != nil {
		c.String(http.StatusUnauthorized, "unauthorized")
		return
	}

	sessionID := strings.TrimPrefix(c.Param("sessionID"), "/")
	if sessionID == "" || sessionID != claims.SessionID {
		c.String(http.StatusForbidden, "session mismatch")
		return
	}
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	// 2) Upgrade to WebSocket
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true}) // TODO: use OriginPatterns in prod
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	conn.SetReadLimit(1 << 20)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// 3) Register client in the per-session hub and send the current route
	h, ok := s.joinHub(sessionID)
	if !ok {
		conn.Close(websocket.StatusGoingAway, "session ended")
		return
	}
	client := hub.NewWSClient(conn, claims.Role)
	h.AddClient(client)
	defer h.RemoveClient(client)

	lg := s.log.With(slog.String("session", sessionID), slog.String("role", string(claims.Role)))
	lg.Info("websocket connected")
	defer lg.Info("websocket disconnected")

	client.SendJSON("route", newSessionView(sess.ID, sess.Route.Snapshot(), s.opts.Icons))

	// 4) Keepalive pings
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				pctx, pcancel := context.WithTimeout(ctx, 5*time.Second)
				_ = conn.Ping(pctx)
				pcancel()
			}
		}
	}()

	geo := &geolocationWait{timeout: s.opts.GeolocationTimeout}
	defer geo.stop()

	// 5) Read loop: apply route events and fan the result out
	for {
		mt, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		if mt != websocket.MessageText {
			continue
		}
		if _, ok := s.sessions.Get(sessionID); !ok {
			conn.Close(websocket.StatusGoingAway, "session ended")
			return
		}

		var ev inputEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			client.SendJSON("error", errorBody{Error: "bad json"})
			continue
		}
		if !claims.CanEdit() {
			client.SendJSON("error", errorBody{Error: errReadOnly.Error(), Event: ev.Type})
			continue
		}

		switch ev.Type {
		case evGeolocationRequest:
			// The fix itself arrives later as its own event; this only
			// bounds how long the client is told to wait for it.
			geo.start(func() {
				lg.Warn("geolocation request timed out", slog.Duration("timeout", geo.timeout))
				client.SendJSON("geolocation_timeout", nil)
			})
			continue
		case evGeolocationFix:
			geo.stop()
		}

		if _, err := s.mutate(ctx, sess, ev); err != nil {
			lg.Warn("event rejected", slog.String("event", ev.Type), slog.Any("err", err))
			client.SendJSON("error", errorBody{Error: err.Error(), Event: ev.Type})
		}
	}
}

// geolocationWait tracks at most one outstanding geolocation request per
// connection.
type geolocationWait struct {
	mu      sync.Mutex
	timeout time.Duration
	timer   *time.Timer
}

// start (re)arms the wait; onTimeout runs if stop is not called in time.
func (g *geolocationWait) start(onTimeout func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	if g.timeout <= 0 {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(g.timeout, func() {
		g.mu.Lock()
		fired := g.timer == t
		if fired {
			g.timer = nil
		}
		g.mu.Unlock()
		if fired {
			onTimeout()
		}
	})
	g.timer = t
}

// stop reports whether a request was pending.
func (g *geolocationWait) stop() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer == nil {
		return false
	}
	g.timer.Stop()
	g.timer = nil
	return true
}
