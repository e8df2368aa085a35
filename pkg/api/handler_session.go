package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/kumiai-dev/kumiai/pkg/models"
)

// createSessionHandler handles POST /api/v1/sessions.
func (s *Server) createSessionHandler(c *echo.Context) error {
	var req models.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionType != "" && !models.IsValidSessionType(req.SessionType) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session_type: "+req.SessionType)
	}
	if req.SessionType == models.SessionTypePM && req.ProjectID == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "pm sessions require a project_id")
	}

	sess, err := s.sessionService.CreateSession(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// listSessionsHandler handles GET /api/v1/sessions.
func (s *Server) listSessionsHandler(c *echo.Context) error {
	filter := models.SessionFilter{
		ProjectID:   c.QueryParam("project_id"),
		SessionType: c.QueryParam("session_type"),
		Status:      c.QueryParam("status"),
	}
	if filter.SessionType != "" && !models.IsValidSessionType(filter.SessionType) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session_type: "+filter.SessionType)
	}

	sessions, err := s.sessionService.ListSessions(c.Request().Context(), filter)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sessions)
}

// getSessionHandler handles GET /api/v1/sessions/:id.
func (s *Server) getSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	sess, err := s.sessionService.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

// deleteSessionHandler handles DELETE /api/v1/sessions/:id.
func (s *Server) deleteSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	// Tear down the in-memory side first so no processor keeps running
	// against a session that is about to disappear.
	s.executor.Delete(sessionID)

	if err := s.sessionService.DeleteSession(c.Request().Context(), sessionID); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// enqueueHandler handles POST /api/v1/sessions/:id/enqueue.
func (s *Server) enqueueHandler(c *echo.Context) error {
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

	size, err := s.executor.Enqueue(c.Request().Context(), sessionID, req)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusAccepted, &EnqueueResponse{
		Status:    "queued",
		QueueSize: size,
	})
}

// interruptHandler handles POST /api/v1/sessions/:id/interrupt.
func (s *Server) interruptHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	sess, err := s.executor.Interrupt(c.Request().Context(), sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

// recreateHandler handles POST /api/v1/sessions/:id/recreate.
func (s *Server) recreateHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	sess, err := s.executor.Recreate(c.Request().Context(), sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

// startHandler handles POST /api/v1/sessions/:id/start.
func (s *Server) startHandler(c *echo.Context) error {
	return s.transition(c, models.StatusWorking)
}

// completeHandler handles POST /api/v1/sessions/:id/complete.
func (s *Server) completeHandler(c *echo.Context) error {
	return s.transition(c, models.StatusCompleted)
}

// resumeHandler handles POST /api/v1/sessions/:id/resume.
func (s *Server) resumeHandler(c *echo.Context) error {
	return s.transition(c, models.StatusIdle)
}

func (s *Server) transition(c *echo.Context, newStatus string) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	sess, err := s.sessionService.TransitionStatus(c.Request().Context(), sessionID, newStatus)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

// updateStageHandler handles PATCH /api/v1/sessions/:id/stage.
func (s *Server) updateStageHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	var req models.UpdateStageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, err := s.sessionService.UpdateKanbanStage(c.Request().Context(), sessionID, req.Stage)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

// listMessagesHandler handles GET /api/v1/sessions/:id/messages.
func (s *Server) listMessagesHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	if _, err := s.sessionService.GetSession(c.Request().Context(), sessionID); err != nil {
		return mapServiceError(err)
	}
	messages, err := s.messageService.ListMessages(c.Request().Context(), sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, messages)
}

// listActivityHandler handles GET /api/v1/sessions/:id/activity.
func (s *Server) listActivityHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	entries, err := s.activityService.ListBySession(c.Request().Context(), sessionID, limit)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, entries)
}
