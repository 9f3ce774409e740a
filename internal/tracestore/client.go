// ABOUTME: HTTP JSON client for the external trace store.
// ABOUTME: Read-only: trace summaries by id and id search, nothing else.

package tracestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// ErrNotFound indicates the trace store has no trace with the given id.
var ErrNotFound = errors.New("trace not found")

// Summary is the per-trace header returned by the trace store.
type Summary struct {
	TraceID         string    `json:"trace_id"`
	RequestID       string    `json:"request_id,omitempty"`
	Status          string    `json:"status"`
	ExecutionTimeMS int64     `json:"execution_time_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

// SearchRequest scopes a trace id search.
type SearchRequest struct {
	ExperimentID string `json:"experiment_id"`
	Filter       string `json:"filter,omitempty"`
	MaxResults   int    `json:"max_results,omitempty"`
}

// Reader is the trace store surface the query layer consumes.
type Reader interface {
	GetTrace(ctx context.Context, traceID string) (*Summary, error)
	SearchTraces(ctx context.Context, req SearchRequest) ([]string, error)
}

// Client talks to a trace store over HTTP. The store itself is an
// external system; only its read API is modeled here.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a trace store client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetTrace fetches one trace summary by id.
func (c *Client) GetTrace(ctx context.Context, traceID string) (*Summary, error) {
	if traceID == "" {
		return nil, fmt.Errorf("trace id is required")
	}

	var response struct {
		Trace *Summary `json:"trace"`
	}
	err := c.postJSON(ctx, c.resolvePath("/api/v1/traces/get"),
		map[string]any{"trace_id": traceID}, &response)
	if err != nil {
		return nil, fmt.Errorf("trace store get: %w", err)
	}
	if response.Trace == nil {
		return nil, fmt.Errorf("trace %s: %w", traceID, ErrNotFound)
	}
	return response.Trace, nil
}

// SearchTraces returns trace ids matching the request, newest first as
// the store orders them.
func (c *Client) SearchTraces(ctx context.Context, req SearchRequest) ([]string, error) {
	var response struct {
		TraceIDs []string `json:"trace_ids"`
	}
	err := c.postJSON(ctx, c.resolvePath("/api/v1/traces/search"), req, &response)
	if err != nil {
		return nil, fmt.Errorf("trace store search: %w", err)
	}
	return response.TraceIDs, nil
}

func (c *Client) resolvePath(p string) string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + p
	}
	u.Path = path.Join(u.Path, p)
	return u.String()
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("trace store base URL not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("trace store returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
