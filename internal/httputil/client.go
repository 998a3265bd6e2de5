package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// Service Client
// =============================================================================

// ServiceClient is an outbound HTTP client for a single upstream service.
// It attaches a static API key header when configured.
type ServiceClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiHeader  string
	maxRetries int
}

// ServiceClientConfig configures the service client.
type ServiceClientConfig struct {
	BaseURL    string
	APIKey     string
	APIHeader  string // header name for APIKey, defaults to "x-api-key"
	Timeout    time.Duration
	MaxRetries int
}

// NewServiceClient creates a new outbound client.
func NewServiceClient(cfg ServiceClientConfig) *ServiceClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	header := cfg.APIHeader
	if header == "" {
		header = "x-api-key"
	}

	return &ServiceClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiHeader:  header,
		maxRetries: cfg.MaxRetries,
	}
}

// Do executes an HTTP request against the upstream service. Transient
// 5xx responses are retried up to MaxRetries times.
func (c *ServiceClient) Do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	return c.doWithRetry(ctx, method, path, body, 0)
}

func (c *ServiceClient) doWithRetry(ctx context.Context, method, path string, body interface{}, attempt int) (*http.Response, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(c.apiHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 500 && attempt < c.maxRetries {
		resp.Body.Close()
		return c.doWithRetry(ctx, method, path, body, attempt+1)
	}

	return resp, nil
}

// Get performs a GET request.
func (c *ServiceClient) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *ServiceClient) Post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// GetJSON performs a GET and decodes the response into target.
func (c *ServiceClient) GetJSON(ctx context.Context, path string, target interface{}) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, target)
}

// PostJSON performs a POST and decodes the response into target.
func (c *ServiceClient) PostJSON(ctx context.Context, path string, body, target interface{}) error {
	resp, err := c.Post(ctx, path, body)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, target)
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// DecodeResponse decodes a JSON response into target. Non-2xx statuses are
// returned as *StatusError with a truncated body excerpt.
func DecodeResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, truncated, err := ReadAllWithLimit(resp.Body, 64<<10)
		if err != nil {
			return fmt.Errorf("read error response body: %w", err)
		}
		msg := strings.TrimSpace(string(body))
		if truncated {
			msg += "...(truncated)"
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	if target == nil {
		if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, 8<<20)); err != nil {
			return fmt.Errorf("discard response body: %w", err)
		}
		return nil
	}

	body, err := ReadAllStrict(resp.Body, 8<<20)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// RawBody reads the full response body with a sane limit.
func RawBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return ReadAllStrict(resp.Body, 8<<20)
}
