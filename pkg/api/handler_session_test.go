package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
)

func newJSONContext(e *echo.Echo, method, target, body string) (*echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func assertHTTPError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	if assert.Error(t, err) {
		he, ok := err.(*echo.HTTPError)
		if assert.True(t, ok, "expected echo.HTTPError") {
			assert.Equal(t, code, he.Code)
			assert.Contains(t, he.Message, msg)
		}
	}
}

func TestCreateSessionHandler_Validation(t *testing.T) {
	// Only parameter validation is tested here; it returns before the
	// service is touched. Happy paths are covered by the service tests.
	s := &Server{}
	e := echo.New()

	t.Run("invalid session_type returns 400", func(t *testing.T) {
		c, _ := newJSONContext(e, http.MethodPost, "/api/v1/sessions", `{"session_type":"manager"}`)
		err := s.createSessionHandler(c)
		assertHTTPError(t, err, http.StatusBadRequest, "invalid session_type")
	})

	t.Run("pm without project returns 422", func(t *testing.T) {
		c, _ := newJSONContext(e, http.MethodPost, "/api/v1/sessions", `{"session_type":"pm"}`)
		err := s.createSessionHandler(c)
		assertHTTPError(t, err, http.StatusUnprocessableEntity, "pm sessions require a project_id")
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		c, _ := newJSONContext(e, http.MethodPost, "/api/v1/sessions", `{not json`)
		err := s.createSessionHandler(c)
		assertHTTPError(t, err, http.StatusBadRequest, "invalid request body")
	})
}

func TestListSessionsHandler_Validation(t *testing.T) {
	s := &Server{}
	e := echo.New()

	c, _ := newJSONContext(e, http.MethodGet, "/api/v1/sessions?session_type=bogus", "")
	err := s.listSessionsHandler(c)
	assertHTTPError(t, err, http.StatusBadRequest, "invalid session_type: bogus")
}

func TestSessionHandlers_MissingID(t *testing.T) {
	s := &Server{}
	e := echo.New()

	handlers := map[string]func(*echo.Context) error{
		"get":       s.getSessionHandler,
		"interrupt": s.interruptHandler,
		"recreate":  s.recreateHandler,
		"start":     s.startHandler,
		"complete":  s.completeHandler,
		"resume":    s.resumeHandler,
		"messages":  s.listMessagesHandler,
		"activity":  s.listActivityHandler,
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			c, _ := newJSONContext(e, http.MethodGet, "/api/v1/sessions//x", "")
			err := h(c)
			assertHTTPError(t, err, http.StatusBadRequest, "session id")
		})
	}
}

func TestEnqueueHandler_Validation(t *testing.T) {
	s := &Server{}
	e := echo.New()

	t.Run("missing session id returns 400", func(t *testing.T) {
		c, _ := newJSONContext(e, http.MethodPost, "/api/v1/sessions//enqueue", `{"content":"hi"}`)
		err := s.enqueueHandler(c)
		assertHTTPError(t, err, http.StatusBadRequest, "session id")
	})
}
