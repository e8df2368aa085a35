package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/pkg/agents"
)

// newDefinitionServer wires a server with real file-backed repositories and
// no database, enough for the agent and skill routes.
func newDefinitionServer(t *testing.T) *Server {
	t.Helper()
	agentRepo, err := agents.NewAgentRepository(t.TempDir())
	require.NoError(t, err)
	skillRepo, err := agents.NewSkillRepository(t.TempDir())
	require.NoError(t, err)

	return NewServer(Deps{
		Agents: agentRepo,
		Skills: skillRepo,
		Logger: slog.Default(),
	})
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestAgentRoutes(t *testing.T) {
	s := newDefinitionServer(t)

	t.Run("save then get", func(t *testing.T) {
		rec := doRequest(s, http.MethodPut, "/api/v1/agents/researcher",
			`{"name":"Researcher","description":"Finds things out","skills":["web-research"],"body":"Always cite sources.\n"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var saved SavedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
		assert.Equal(t, "researcher", saved.ID)
		assert.Equal(t, "saved", saved.Status)

		rec = doRequest(s, http.MethodGet, "/api/v1/agents/researcher", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var got agents.Agent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Researcher", got.Name)
		assert.Equal(t, []string{"web-research"}, got.Skills)
	})

	t.Run("list", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/api/v1/agents", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var all []agents.Agent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
		assert.Len(t, all, 1)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		rec := doRequest(s, http.MethodPut, "/api/v1/agents/anon", `{"description":"no name"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("traversal id rejected with 403", func(t *testing.T) {
		rec := doRequest(s, http.MethodPut, "/api/v1/agents/a..b", `{"name":"Escape"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("delete then 404", func(t *testing.T) {
		rec := doRequest(s, http.MethodDelete, "/api/v1/agents/researcher", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = doRequest(s, http.MethodGet, "/api/v1/agents/researcher", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSkillRoutes(t *testing.T) {
	s := newDefinitionServer(t)

	rec := doRequest(s, http.MethodPut, "/api/v1/skills/review",
		`{"name":"Code Review","tags":["quality"],"body":"Check error handling first.\n"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(s, http.MethodGet, "/api/v1/skills/review", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got agents.Skill
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Code Review", got.Name)

	rec = doRequest(s, http.MethodDelete, "/api/v1/skills/review", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/skills/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecurityHeadersApplied(t *testing.T) {
	s := newDefinitionServer(t)
	rec := doRequest(s, http.MethodGet, "/api/v1/agents", "")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
