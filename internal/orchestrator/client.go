// Package orchestrator is the thin, typed client over the external
// workflow-orchestrator's REST API (spec.md §4.1, §6). Transport is
// github.com/go-resty/resty/v2, the same library dagu itself drives its
// own REST API with in internal/integration/queue_shell_test.go; retry is
// internal/backoff's policies.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dagu-org/scenewatcher/internal/backoff"
	"github.com/dagu-org/scenewatcher/internal/logger"
	"github.com/go-resty/resty/v2"
)

// Client is the typed orchestrator REST client.
type Client struct {
	rest *resty.Client
	log  logger.Logger
}

const (
	retryAttempts = 3
	retryDelay    = 1 * time.Second
)

// New builds a Client against baseURL, attaching the session cookie to
// every request per spec.md §6 "Authentication".
func New(baseURL, sessionCookie string, log logger.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetCookie(&http.Cookie{Name: "session", Value: sessionCookie})

	return &Client{rest: rc, log: log}
}

func retryPolicy() backoff.RetryPolicy {
	p := backoff.NewConstantBackoffPolicy(retryDelay)
	p.MaxRetries = retryAttempts
	return backoff.WithJitter(p, backoff.Jitter)
}

// do executes fn (one resty request) under the retry policy, retrying on
// transport failure or non-2xx status (spec.md §4.1, §9's "retries 3x
// regardless of status" open question).
func (c *Client) do(ctx context.Context, fn func() (*resty.Response, error)) (*resty.Response, error) {
	retrier := backoff.NewRetrier(retryPolicy())
	var lastResp *resty.Response
	var lastErr error

	for {
		resp, err := fn()
		if err == nil && !isRetryableStatus(resp.StatusCode()) {
			return resp, nil
		}

		if err != nil {
			lastErr = fmt.Errorf("%w: %s", ErrTransport, err)
			lastResp = nil
		} else {
			lastResp = resp
			lastErr = newStatusError(resp.StatusCode(), resp.String())
		}

		if waitErr := retrier.Next(ctx, lastErr); waitErr != nil {
			if lastResp != nil {
				return lastResp, lastErr
			}
			return nil, lastErr
		}
		if c.log != nil {
			c.log.Debug("retrying orchestrator request", "error", lastErr)
		}
	}
}
