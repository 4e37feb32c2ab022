// Package apiclient talks to a running spectoc server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/spectoc/internal/doctree"
	"github.com/dgallion1/spectoc/internal/pipeline"
	"github.com/dgallion1/spectoc/internal/search"
)

// ErrNotFound is returned when the server has no such section or job.
var ErrNotFound = errors.New("not found")

// Client communicates with the spectoc HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SearchResponse is the response from GET /api/search.
type SearchResponse struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []search.Result `json:"results"`
}

// ParseResponse is the response from POST /api/parse.
type ParseResponse struct {
	JobID   string `json:"job_id"`
	PDFPath string `json:"pdf_path"`
	Status  string `json:"status"`
	PollURL string `json:"poll_url"`
}

// Search runs a query on the server. limit < 0 uses the server default.
func (c *Client) Search(ctx context.Context, query string, content bool, limit int) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if content {
		q.Set("content", "true")
	}
	if limit >= 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp SearchResponse
	if err := c.get(ctx, "/api/search?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &resp, nil
}

// Section fetches one TOC entry by section id.
func (c *Client) Section(ctx context.Context, id string) (*doctree.TOCEntry, error) {
	var e doctree.TOCEntry
	if err := c.get(ctx, "/api/sections/"+url.PathEscape(id), &e); err != nil {
		return nil, fmt.Errorf("get section %s: %w", id, err)
	}
	return &e, nil
}

// Parse queues a parse of pdfPath, or of the server's default PDF when empty.
func (c *Client) Parse(ctx context.Context, pdfPath string) (*ParseResponse, error) {
	body, err := json.Marshal(map[string]string{"pdf_path": pdfPath})
	if err != nil {
		return nil, fmt.Errorf("marshal parse request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/parse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp ParseResponse
	if err := c.do(req, http.StatusAccepted, &resp); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return &resp, nil
}

// ParseStatus polls a queued parse job.
func (c *Client) ParseStatus(ctx context.Context, jobID string) (*pipeline.JobSnapshot, error) {
	var snap pipeline.JobSnapshot
	if err := c.get(ctx, "/api/parse/"+url.PathEscape(jobID)+"/status", &snap); err != nil {
		return nil, fmt.Errorf("parse status %s: %w", jobID, err)
	}
	return &snap, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, http.StatusOK, out)
}

func (c *Client) do(req *http.Request, want int, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != want {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
