package cli

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

	"github.com/hyperjump/apiquery/internal/models"
)

// Client calls a running apiquery server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
	}
}

// Generate asks the server to turn query into an API call.
func (c *Client) Generate(ctx context.Context, query string, maxContext int) (*GenerateResponse, error) {
	var out GenerateResponse
	req := map[string]any{"query": query, "max_context": maxContext}
	if err := c.do(ctx, http.MethodPost, "/api/v1/query/generate", req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Explain asks the server to describe q.
func (c *Client) Explain(ctx context.Context, q *models.GeneratedQuery) (string, error) {
	var out struct {
		Explanation string `json:"explanation"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/query/explain", q, http.StatusOK, &out); err != nil {
		return "", err
	}
	return out.Explanation, nil
}

// Status fetches the server status report.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Documents lists the registered documents.
func (c *Client) Documents(ctx context.Context) ([]*models.DocumentInfo, error) {
	var out struct {
		Documents []*models.DocumentInfo `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/documents", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// WatchList returns the server's watched directories.
func (c *Client) WatchList(ctx context.Context) ([]string, error) {
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/watch/directories", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Directories, nil
}

// WatchAdd adds a watched directory and indexes its existing files.
func (c *Client) WatchAdd(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/watch/directories",
		map[string]any{"path": path, "sync": true}, http.StatusCreated, nil)
}

// WatchRemove stops watching a directory.
func (c *Client) WatchRemove(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/watch/directories?path="+url.QueryEscape(path), nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
