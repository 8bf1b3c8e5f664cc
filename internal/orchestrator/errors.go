package orchestrator

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is the sentinel every task-instance/xcom 404 wraps, so
// callers can recover with errors.Is(err, orchestrator.ErrNotFound), per
// spec.md §7's NotFound taxonomy entry.
var ErrNotFound = errors.New("orchestrator: not found")

// ErrTransport wraps socket/DNS/connect/timeout failures.
var ErrTransport = errors.New("orchestrator: transport error")

// StatusError is a non-2xx HTTP response, terminal once retries are
// exhausted (spec.md §7 HttpStatusError).
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("orchestrator: http status %d: %s", e.StatusCode, e.Body)
}

// newStatusError wraps a StatusError, additionally wrapping ErrNotFound
// when the status is 404.
func newStatusError(code int, body string) error {
	se := &StatusError{StatusCode: code, Body: body}
	if code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, se)
	}
	return se
}

func isRetryableStatus(code int) bool {
	// The source's retry decorator retries on any non-2xx regardless of
	// status (including 4xx) — see spec.md §9's open question. Retained
	// for compatibility; the retried attempt may still resolve to a 404
	// that becomes ErrNotFound once retries are exhausted.
	return code < 200 || code >= 300
}
