package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/courtside/internal/coach"
	"github.com/claude/courtside/internal/models"
	"github.com/claude/courtside/internal/plan"
	"github.com/claude/courtside/internal/service"
)

// HTTPClient implements Backend by calling the Courtside REST API.
// Used for stdio MCP mode where the MCP binary is spawned by a client
// while the coach runs in the courtside server.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Backend.
var _ Backend = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListPlans(ctx context.Context) ([]plan.Summary, error) {
	var plans []plan.Summary
	err := c.do(ctx, http.MethodGet, "/api/v1/plans", nil, nil, &plans)
	return plans, err
}

func (c *HTTPClient) StartWorkout(ctx context.Context, req service.StartRequest) (coach.View, error) {
	var view coach.View
	err := c.do(ctx, http.MethodPost, "/api/v1/workout/start", nil, req, &view)
	return view, err
}

func (c *HTTPClient) Status(ctx context.Context) (coach.View, error) {
	var view coach.View
	err := c.do(ctx, http.MethodGet, "/api/v1/workout", nil, nil, &view)
	return view, err
}

func (c *HTTPClient) control(ctx context.Context, path string, params url.Values) (Control, error) {
	var ctl Control
	err := c.do(ctx, http.MethodPost, path, params, nil, &ctl)
	return ctl, err
}

func (c *HTTPClient) Pause(ctx context.Context) (Control, error) {
	return c.control(ctx, "/api/v1/workout/pause", nil)
}

func (c *HTTPClient) Resume(ctx context.Context) (Control, error) {
	return c.control(ctx, "/api/v1/workout/resume", nil)
}

func (c *HTTPClient) Skip(ctx context.Context, unit string, dir int) (Control, error) {
	path := "/api/v1/workout/next"
	if dir < 0 {
		path = "/api/v1/workout/prev"
	}
	params := url.Values{}
	params.Set("unit", unit)
	return c.control(ctx, path, params)
}

func (c *HTTPClient) Stop(ctx context.Context) (Control, error) {
	return c.control(ctx, "/api/v1/workout/stop", nil)
}

func (c *HTTPClient) History(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var rows []models.HistoryRecord
	err := c.do(ctx, http.MethodGet, "/api/v1/history", params, nil, &rows)
	return rows, err
}
