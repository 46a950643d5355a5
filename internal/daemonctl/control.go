// Package daemonctl is the HTTP client the CLI uses to drive a running
// daemon's control API.
package daemonctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mupacs/internal/api"
)

// Client talks to one daemon instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a client for the daemon bound at addr ("host:port").
func New(addr string) *Client {
	trimmed := strings.TrimSpace(addr)
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	return &Client{
		baseURL: strings.TrimRight(trimmed, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// AddImport submits an import for path and returns the tracked job.
func (c *Client) AddImport(ctx context.Context, path string) (api.ImportJob, error) {
	var job api.ImportJob
	err := c.do(ctx, http.MethodPost, "/api/imports", api.ImportRequest{Path: path}, &job)
	return job, err
}

// ListImports returns the daemon's tracked import jobs.
func (c *Client) ListImports(ctx context.Context) ([]api.ImportJob, error) {
	var list api.ImportListResponse
	if err := c.do(ctx, http.MethodGet, "/api/imports", nil, &list); err != nil {
		return nil, err
	}
	return list.Jobs, nil
}

// CleanupImports drops completed jobs from tracking and reports the count.
func (c *Client) CleanupImports(ctx context.Context) (int, error) {
	var cleaned api.ImportCleanupResponse
	if err := c.do(ctx, http.MethodPost, "/api/imports/cleanup", nil, &cleaned); err != nil {
		return 0, err
	}
	return cleaned.Removed, nil
}

// Query runs a level-scoped archive query. Level is the URL segment
// (patients, studies, series, or images).
func (c *Client) Query(ctx context.Context, level string, keys map[string]string) ([]map[string]string, error) {
	values := make(url.Values, len(keys))
	for field, value := range keys {
		values.Set(field, value)
	}
	path := "/api/query/" + url.PathEscape(level)
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var response api.QueryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Matches, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon: %s", payload.Error)
	}
	return fmt.Errorf("daemon: unexpected status %s", resp.Status)
}
