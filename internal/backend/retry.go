package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldline/paydesk/internal/config"
)

// CallFunctionWithRetry is the legacy ticket-demo fetch path: a fixed
// 60-second delay between attempts, three attempts total. Only transport
// failures are retried; a backend rejection is final on the first attempt.
// The payment core never uses this: a failed funding call waits for the
// operator to resubmit.
func (c *Client) CallFunctionWithRetry(ctx context.Context, functionName string, params map[string]string) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= config.RetryAttempts; attempt++ {
		envelope, err := c.CallFunction(ctx, functionName, params)
		if err == nil {
			return envelope, nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return envelope, err
		}

		lastErr = err
		slog.Warn("retryable backend call failed",
			"functionName", functionName,
			"attempt", attempt,
			"maxAttempts", config.RetryAttempts,
			"error", err,
		)

		if attempt == config.RetryAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(config.RetryDelay):
		}
	}

	return nil, fmt.Errorf("backend function %s failed after %d attempts: %w", functionName, config.RetryAttempts, lastErr)
}
