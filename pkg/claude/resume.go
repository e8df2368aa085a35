package claude

import (
	"errors"
	"fmt"
	"regexp"
)

// resumeFailurePattern recognizes the subprocess's "stale resume token"
// failure modes. The match is on error text; this is the contract of the
// underlying CLI, so keep the matcher in one place.
var resumeFailurePattern = regexp.MustCompile(`(?i)no conversation|conversation not found|exit code 1`)

// ResumeError marks a connection failure caused by a stale resume token.
// The manager retries exactly once with a fresh session on this error.
type ResumeError struct {
	Detail string
}

func (e *ResumeError) Error() string {
	return fmt.Sprintf("resume failed: %s", e.Detail)
}

// IsResumeFailure reports whether err indicates a stale resume token.
func IsResumeFailure(err error) bool {
	if err == nil {
		return false
	}
	var re *ResumeError
	if errors.As(err, &re) {
		return true
	}
	return resumeFailurePattern.MatchString(err.Error())
}

// classifyConnectError wraps stale-token failures as ResumeError so callers
// can branch with errors.As.
func classifyConnectError(err error) error {
	if err == nil {
		return nil
	}
	if resumeFailurePattern.MatchString(err.Error()) {
		return &ResumeError{Detail: err.Error()}
	}
	return err
}
