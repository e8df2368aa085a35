package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/kumiai-dev/kumiai/pkg/events"
	"github.com/kumiai-dev/kumiai/pkg/models"
)

// keepaliveInterval is how long an SSE stream may stay silent before a ping
// frame is emitted. Delivered events reset the clock.
const keepaliveInterval = 30 * time.Second

// streamHandler handles GET /api/v1/sessions/:id/stream. It holds the
// connection open and relays every event for the session until the client
// disconnects.
func (s *Server) streamHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}
	if _, err := s.sessionService.GetSession(c.Request().Context(), sessionID); err != nil {
		return mapServiceError(err)
	}

	sub := s.broadcaster.Register(sessionID)
	defer s.broadcaster.Unregister(sessionID, sub)

	stream := s.startEventStream(c)
	relay(c.Request().Context(), sub.C(), keepaliveInterval, func(ev events.Event) error {
		return stream.send(sessionID, ev)
	}, nil)
	return nil
}

// queryHandler handles POST /api/v1/sessions/:id/query. It enqueues the
// message and streams the resulting turn over SSE, closing after the turn
// completes or fails.
func (s *Server) queryHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	var req models.EnqueueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	// Subscribe before enqueueing so no turn event is missed.
	sub := s.broadcaster.Register(sessionID)
	defer s.broadcaster.Unregister(sessionID, sub)

	if _, err := s.executor.Enqueue(c.Request().Context(), sessionID, req); err != nil {
		return mapServiceError(err)
	}

	stream := s.startEventStream(c)
	relay(c.Request().Context(), sub.C(), keepaliveInterval, func(ev events.Event) error {
		return stream.send(sessionID, ev)
	}, func(ev events.Event) bool {
		switch ev.EventType() {
		case events.TypeMessageComplete, events.TypeError:
			return true
		}
		return false
	})
	return nil
}

// relay forwards subscriber events to send until the context ends, the
// subscription closes, a write fails, or done reports a terminal event.
// A ping is sent after keepalive of silence; any delivery resets the timer.
func relay(ctx context.Context, sub <-chan events.Event, keepalive time.Duration, send func(events.Event) error, done func(events.Event) bool) {
	timer := time.NewTimer(keepalive)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := send(events.Ping{}); err != nil {
				return
			}
			timer.Reset(keepalive)
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := send(ev); err != nil {
				return
			}
			if done != nil && done(ev) {
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(keepalive)
		}
	}
}

// eventStream writes SSE frames and flushes after each one.
type eventStream struct {
	resp http.ResponseWriter
	rc   *http.ResponseController
	log  func(err error)
}

func (s *Server) startEventStream(c *echo.Context) *eventStream {
	h := c.Response().Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
	return &eventStream{
		resp: c.Response(),
		rc:   http.NewResponseController(c.Response()),
		log: func(err error) {
			s.logger.Debug("sse write failed", "error", err)
		},
	}
}

func (w *eventStream) send(sessionID string, ev events.Event) error {
	frame, err := events.EncodeFrame(sessionID, ev)
	if err != nil {
		w.log(err)
		return err
	}
	if _, err := w.resp.Write(frame); err != nil {
		w.log(err)
		return err
	}
	if err := w.rc.Flush(); err != nil {
		w.log(err)
		return err
	}
	return nil
}
