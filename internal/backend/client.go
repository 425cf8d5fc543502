package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fieldline/paydesk/internal/config"
)

// TokenSource supplies the current backend session token, or "" when
// logged out. *store.DB satisfies it.
type TokenSource interface {
	Token() string
}

// OfflineSink receives transport-failure signals. The state manager
// satisfies it; a nil sink is allowed.
type OfflineSink interface {
	SetOffline(offline bool)
}

// Response is the backend's standard JSON envelope.
type Response struct {
	Success           bool            `json:"success"`
	Error             string          `json:"error,omitempty"`
	Details           string          `json:"details,omitempty"`
	NeedsVerification bool            `json:"needsVerification,omitempty"`
	Data              json.RawMessage `json:"data,omitempty"`
}

// Client wraps HTTP calls to the remote backend. Every request is a
// form-encoded POST against a single base URL; secured calls go through
// the generic backend-function endpoint with a functionName discriminator.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	limiter    *rate.Limiter
	offline    OfflineSink
}

// New creates a backend client. rps caps outbound requests per second.
func New(baseURL string, tokens TokenSource, rps int) *Client {
	slog.Info("backend client initialized",
		"baseURL", baseURL,
		"rps", rps,
	)

	return &Client{
		httpClient: &http.Client{Timeout: config.APITimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		// Burst(1) spreads requests evenly across the second so the remote
		// backend never sees a burst above its tolerance.
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// SetOfflineSink attaches the sink notified on transport failures.
func (c *Client) SetOfflineSink(sink OfflineSink) {
	c.offline = sink
}

// call posts the form to baseURL+path and decodes the JSON envelope.
// Transport failures are wrapped in ErrOffline and reported to the offline
// sink; any completed HTTP exchange clears the offline flag.
func (c *Client) call(ctx context.Context, path string, form url.Values) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.markOffline(true)
		slog.Error("backend request failed",
			"path", path,
			"error", err,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
		return nil, fmt.Errorf("%w: %v", config.ErrOffline, err)
	}
	defer resp.Body.Close()

	c.markOffline(false)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		slog.Error("backend response decode failed",
			"path", path,
			"status", resp.StatusCode,
			"error", err,
		)
		return nil, fmt.Errorf("%w: decode error: %v", config.ErrMalformedPayload, err)
	}

	slog.Debug("backend call completed",
		"path", path,
		"status", resp.StatusCode,
		"success", envelope.Success,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode != http.StatusOK && envelope.Error == "" {
		return nil, fmt.Errorf("%w: HTTP %d", config.ErrBackendRejected, resp.StatusCode)
	}

	return &envelope, nil
}

// CallFunction invokes a named backend function through the generic
// backend-function endpoint. The session token is appended to the payload
// the way every secured call requires.
func (c *Client) CallFunction(ctx context.Context, functionName string, params map[string]string) (*Response, error) {
	token := c.tokens.Token()
	if token == "" {
		return nil, config.ErrUnauthenticated
	}

	form := EncodeForm(params)
	form.Set("functionName", functionName)
	form.Set("token", token)

	slog.Debug("calling backend function", "functionName", functionName)

	envelope, err := c.call(ctx, "/backend-function", form)
	if err != nil {
		return nil, fmt.Errorf("backend function %s: %w", functionName, err)
	}

	if !envelope.Success {
		apiErr := Classify(envelope.Error, envelope.Details)
		slog.Warn("backend function rejected",
			"functionName", functionName,
			"code", apiErr.Code,
			"message", apiErr.Message,
		)
		return envelope, apiErr
	}

	return envelope, nil
}

func (c *Client) markOffline(offline bool) {
	if c.offline != nil {
		c.offline.SetOffline(offline)
	}
}
