// Package texcompile provides a Go client for the texcompile HTTP API.
//
// Usage:
//
//	client := texcompile.New("http://localhost:9000")
//
//	// Compile and wait for the PDF
//	pdf, err := client.Compile(ctx, texcompile.CompileRequest{Text: source})
//
//	// Or queue the compile and collect it later
//	job, err := client.CompileAsync(ctx, texcompile.CompileRequest{Text: source})
//	job, err = client.Jobs.Wait(ctx, job.JobID, time.Second)
//	pdf, err = client.Jobs.Artifact(ctx, job.JobID)
package texcompile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client is the texcompile API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header

	Jobs *JobsService
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAPIKey sends key as a Bearer token, for servers started with --api-key.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.header.Set("Authorization", "Bearer "+key)
	}
}

// WithHeader adds a header to every request, e.g. X-Request-ID.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// New creates a client. baseURL is the server root (e.g. "http://localhost:9000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		header:     http.Header{},
	}
	for _, o := range opts {
		o(c)
	}
	c.Jobs = &JobsService{c: c}
	return c
}

// Health checks that the server is reachable and healthy.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return doRequest[HealthResponse](ctx, c, http.MethodGet, "/api/v0/healthcheck", nil, http.StatusOK)
}

// --- internal helpers ---

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("texcompile: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, expectedStatus int) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != expectedStatus {
		defer resp.Body.Close()
		return nil, parseError(resp)
	}
	return resp, nil
}

func doRequest[T any](ctx context.Context, c *Client, method, path string, body any, expectedStatus int) (*T, error) {
	resp, err := c.do(ctx, method, path, body, expectedStatus)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("texcompile: decode response: %w", err)
	}
	return &out, nil
}

// doBytes returns the raw response body.
func doBytes(ctx context.Context, c *Client, method, path string, body any, expectedStatus int) ([]byte, error) {
	resp, err := c.do(ctx, method, path, body, expectedStatus)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("texcompile: read response: %w", err)
	}
	return b, nil
}

func parseError(resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		e.Message = body.Message
		e.Code = ErrorCode(body.Code)
	} else {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
