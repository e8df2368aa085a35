package api

import (
	"net/http"
	"testing"

	echo "github.com/labstack/echo/v5"
)

func TestProjectHandlers_MissingID(t *testing.T) {
	s := &Server{}
	e := echo.New()

	handlers := map[string]func(*echo.Context) error{
		"get":       s.getProjectHandler,
		"delete":    s.deleteProjectHandler,
		"remove_pm": s.removePMHandler,
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			c, _ := newJSONContext(e, http.MethodGet, "/api/v1/projects//x", "")
			err := h(c)
			assertHTTPError(t, err, http.StatusBadRequest, "project id")
		})
	}
}

func TestAssignPMHandler_Validation(t *testing.T) {
	s := &Server{}
	e := echo.New()

	t.Run("missing project id returns 400", func(t *testing.T) {
		c, _ := newJSONContext(e, http.MethodPost, "/api/v1/projects//assign_pm", `{"agent_id":"pm"}`)
		err := s.assignPMHandler(c)
		assertHTTPError(t, err, http.StatusBadRequest, "project id")
	})
}

func TestCreateProjectHandler_MalformedBody(t *testing.T) {
	s := &Server{}
	e := echo.New()

	c, _ := newJSONContext(e, http.MethodPost, "/api/v1/projects", `{broken`)
	err := s.createProjectHandler(c)
	assertHTTPError(t, err, http.StatusBadRequest, "invalid request body")
}
