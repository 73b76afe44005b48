package ai

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx reply from the provider at some step of the run
// sequence. Body holds a snippet of the upstream response so the log row
// shows what the provider actually said.
type APIError struct {
	Step       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Step, e.StatusCode, e.Body)
}

// RunStateError — the run reached a terminal failure state on the provider side.
type RunStateError struct {
	State string
}

func (e *RunStateError) Error() string {
	return "assistant run ended with status: " + e.State
}

// ErrRunTimeout — the run never reached a terminal state within the poll ceiling.
var ErrRunTimeout = errors.New("assistant run timeout")

// Classified outcomes of the settings connection test.
var (
	ErrUnauthorized      = errors.New("assistant API key rejected")
	ErrAssistantNotFound = errors.New("assistant not found")
	ErrConnectTimeout    = errors.New("assistant API timed out")
)

func snippet(b []byte) string {
	s := string(b)
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
