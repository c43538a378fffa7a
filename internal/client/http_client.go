package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClientConfig configures an HTTPClient
type HTTPClientConfig struct {
	Timeout time.Duration
}

// Request is a generic outbound HTTP request
type Request struct {
	Method string
	// URL overrides the client endpoint when set.
	URL         string
	QueryParams map[string]string
	Headers     map[string]string
	Body        any
}

// HTTPClient sends requests to one endpoint
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPClient creates a client for endpoint. A zero timeout leaves requests
// bounded by their context only.
func NewHTTPClient(endpoint string, config HTTPClientConfig) *HTTPClient {
	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// DoRequest sends req and returns the raw response. The caller closes the body.
func (c *HTTPClient) DoRequest(ctx context.Context, req Request) (*http.Response, error) {
	target := c.endpoint
	if req.URL != "" {
		target = req.URL
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", target, err)
	}
	if len(req.QueryParams) > 0 {
		q := u.Query()
		for k, v := range req.QueryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	return c.httpClient.Do(httpReq)
}
