package api

import (
	"fmt"
	"net/http"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"

	"github.com/kumiai-dev/kumiai/pkg/agents"
	"github.com/kumiai-dev/kumiai/pkg/services"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
		expectMsg  string
	}{
		{
			name:       "validation error maps to 400",
			err:        services.NewValidationError("session_type", "missing field"),
			expectCode: http.StatusBadRequest,
			expectMsg:  "missing field",
		},
		{
			name:       "not found maps to 404",
			err:        fmt.Errorf("wrapped: %w", services.ErrNotFound),
			expectCode: http.StatusNotFound,
			expectMsg:  "resource not found",
		},
		{
			name:       "agent not found maps to 404",
			err:        fmt.Errorf("wrapped: %w", agents.ErrNotFound),
			expectCode: http.StatusNotFound,
			expectMsg:  "resource not found",
		},
		{
			name:       "invalid transition maps to 409",
			err:        fmt.Errorf("working -> idle: %w", services.ErrInvalidTransition),
			expectCode: http.StatusConflict,
			expectMsg:  "invalid state transition",
		},
		{
			name:       "already exists maps to 409",
			err:        fmt.Errorf("wrapped: %w", services.ErrAlreadyExists),
			expectCode: http.StatusConflict,
			expectMsg:  "resource already exists",
		},
		{
			name:       "forbidden path maps to 403",
			err:        fmt.Errorf("wrapped: %w", agents.ErrForbiddenPath),
			expectCode: http.StatusForbidden,
			expectMsg:  "path outside allowed directory",
		},
		{
			name:       "invalid entry id maps to 400",
			err:        fmt.Errorf("wrapped: %w", agents.ErrInvalidID),
			expectCode: http.StatusBadRequest,
			expectMsg:  agents.ErrInvalidID.Error(),
		},
		{
			name:       "missing name maps to 400",
			err:        agents.ErrMissingName,
			expectCode: http.StatusBadRequest,
			expectMsg:  agents.ErrMissingName.Error(),
		},
		{
			name:       "unknown error maps to 500",
			err:        fmt.Errorf("something unexpected happened"),
			expectCode: http.StatusInternalServerError,
			expectMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := mapServiceError(tt.err)
			assert.IsType(t, &echo.HTTPError{}, he)
			assert.Equal(t, tt.expectCode, he.Code)
			assert.Contains(t, he.Error(), tt.expectMsg)
		})
	}
}
