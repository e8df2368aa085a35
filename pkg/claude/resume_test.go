package claude

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsResumeFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped ResumeError", fmt.Errorf("connect: %w", &ResumeError{Detail: "x"}), true},
		{"no conversation text", errors.New("No conversation found with session ID abc"), true},
		{"conversation not found text", errors.New("conversation not found"), true},
		{"exit code 1", errors.New("subprocess exit code 1: something"), true},
		{"other exit code", errors.New("subprocess exit code 2: oom"), false},
		{"unrelated error", errors.New("dial tcp: refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsResumeFailure(tt.err))
		})
	}
}

func TestClassifyConnectError(t *testing.T) {
	t.Run("stale token becomes ResumeError", func(t *testing.T) {
		err := classifyConnectError(errors.New("No conversation found"))
		var re *ResumeError
		assert.True(t, errors.As(err, &re))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		in := errors.New("plain failure")
		assert.Equal(t, in, classifyConnectError(in))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, classifyConnectError(nil))
	})
}
