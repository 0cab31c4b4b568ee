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

	"github.com/hyperjump/kioku/internal/models"
)

// Client talks to a running kioku server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Search runs a search on the server.
func (c *Client) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	var resp models.SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/search", req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddMemory stores a memory on the server.
func (c *Client) AddMemory(ctx context.Context, input models.MemoryInput) (*models.MemoryChunk, error) {
	var m models.MemoryChunk
	if err := c.do(ctx, http.MethodPost, "/api/v1/memories", input, http.StatusCreated, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SetPinned pins or unpins a memory.
func (c *Client) SetPinned(ctx context.Context, id string, pinned bool) error {
	method := http.MethodPost
	if !pinned {
		method = http.MethodDelete
	}
	return c.do(ctx, method, "/api/v1/memories/"+url.PathEscape(id)+"/pin", nil, http.StatusOK, nil)
}

// Status returns the server status document.
func (c *Client) Status(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
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
