package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/kumiai-dev/kumiai/pkg/agents"
)

// listAgentsHandler handles GET /api/v1/agents.
func (s *Server) listAgentsHandler(c *echo.Context) error {
	all, err := s.agents.List()
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, all)
}

// getAgentHandler handles GET /api/v1/agents/:id.
func (s *Server) getAgentHandler(c *echo.Context) error {
	a, err := s.agents.Get(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// saveAgentHandler handles PUT /api/v1/agents/:id.
func (s *Server) saveAgentHandler(c *echo.Context) error {
	var a agents.Agent
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	// The path parameter wins over any id in the body.
	a.ID = c.Param("id")
	if a.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	if err := s.agents.Save(&a); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &SavedResponse{ID: a.ID, Status: "saved"})
}

// deleteAgentHandler handles DELETE /api/v1/agents/:id.
func (s *Server) deleteAgentHandler(c *echo.Context) error {
	if err := s.agents.Delete(c.Param("id")); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// listSkillsHandler handles GET /api/v1/skills.
func (s *Server) listSkillsHandler(c *echo.Context) error {
	all, err := s.skills.List()
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, all)
}

// getSkillHandler handles GET /api/v1/skills/:id.
func (s *Server) getSkillHandler(c *echo.Context) error {
	sk, err := s.skills.Get(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sk)
}

// saveSkillHandler handles PUT /api/v1/skills/:id.
func (s *Server) saveSkillHandler(c *echo.Context) error {
	var sk agents.Skill
	if err := c.Bind(&sk); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sk.ID = c.Param("id")
	if sk.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	if err := s.skills.Save(&sk); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &SavedResponse{ID: sk.ID, Status: "saved"})
}

// deleteSkillHandler handles DELETE /api/v1/skills/:id.
func (s *Server) deleteSkillHandler(c *echo.Context) error {
	if err := s.skills.Delete(c.Param("id")); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
