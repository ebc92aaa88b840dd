// Package tools provides the reference WebMCP tool set for the Loom daemon's
// session API, built on a shared outbound request helper.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/loom-portal/internal/common"
)

// maxResponseSize caps response bodies to prevent OOM from unexpectedly large
// daemon responses.
const maxResponseSize = 50 << 20 // 50MB

// TokenSource returns the bearer token of the current caller context, or ""
// when none is set. It is consulted on every request, never cached, so a
// context change between calls is always observed.
type TokenSource func() string

// DaemonClient issues JSON requests against the Loom daemon's REST API.
type DaemonClient struct {
	baseURL    string
	basePath   string
	httpClient *http.Client
	logger     *common.Logger
	token      TokenSource
}

// NewDaemonClient creates a client for the daemon at baseURL. basePath
// defaults to /api when empty. tokenSource may be nil for unauthenticated use.
func NewDaemonClient(baseURL, basePath string, logger *common.Logger, tokenSource TokenSource) *DaemonClient {
	if basePath == "" {
		basePath = "/api"
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &DaemonClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		basePath: basePath,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
		logger: logger,
		token:  tokenSource,
	}
}

// BasePath returns the configured API base path.
func (c *DaemonClient) BasePath() string {
	return c.basePath
}

// Get performs a GET request against the given path (relative to the base
// path) and returns the parsed response body.
func (c *DaemonClient) Get(ctx context.Context, path string) (any, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body and returns the parsed
// response body.
func (c *DaemonClient) Post(ctx context.Context, path string, data any) (any, error) {
	return c.do(ctx, http.MethodPost, path, data)
}

// do performs the request. Content-Type is always set; the Authorization
// bearer header is attached iff the caller context currently carries a token.
func (c *DaemonClient) do(ctx context.Context, method, path string, data any) (any, error) {
	c.logger.Debug().Str("method", method).Str("path", path).Msg("daemon request")

	var bodyReader io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.basePath+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error().Str("method", method).Str("path", path).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("daemon request failed")
		return nil, fmt.Errorf("daemon request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("daemon response")

	if resp.StatusCode >= 400 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}

	if len(body) == 0 {
		return nil, nil
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return parsed, nil
}

// parseErrorResponse normalizes a non-success daemon response into an error.
// A body with an "error" string field yields that message; a parseable body
// without one yields a message embedding the status code; an unparseable body
// yields a generic message with no status detail.
func parseErrorResponse(statusCode int, body []byte) error {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return errors.New("Request failed")
	}
	if msg, ok := payload["error"].(string); ok && msg != "" {
		return errors.New(msg)
	}
	return fmt.Errorf("Request failed with status %d", statusCode)
}
