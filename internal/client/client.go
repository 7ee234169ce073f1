// Package client talks to a running relay from the publisher side: the
// automation workflow, scripts and the relay-cli binary.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vrsandeep/jobrelay/internal/models"
)

// APIError is returned when the relay answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for the relay at baseURL, e.g. "http://localhost:3005".
// A nil httpClient uses a client with a 10 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) PublishStatus(ctx context.Context, u models.StatusUpdate) (*models.DeliveryResult, error) {
	var result models.DeliveryResult
	if err := c.do(ctx, http.MethodPost, "/status", u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PublishCompletion(ctx context.Context, u models.CompletionUpdate) (*models.DeliveryResult, error) {
	var result models.DeliveryResult
	if err := c.do(ctx, http.MethodPost, "/complete", u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListJobs(ctx context.Context) (*models.JobList, error) {
	var list models.JobList
	if err := c.do(ctx, http.MethodGet, "/jobs", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) Health(ctx context.Context) (*models.HealthReport, error) {
	var report models.HealthReport
	if err := c.do(ctx, http.MethodGet, "/health", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) != nil || errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
