package inkwell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client is the inkwell API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("inkwell: base URL required")
	}

	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		http:    hc,
	}, nil
}

// Ask submits a question about the user's journal.
func (c *Client) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	var resp AskResponse
	if err := c.post(ctx, "/v1/ask", req, &resp); err != nil {
		return AskResponse{}, err
	}
	return resp, nil
}

// Health reports the server's dependency status. A degraded server still
// returns a status payload, so both the status and the error may be set.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("inkwell: build request: %w", err)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("inkwell: health: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	var status HealthStatus
	if err := json.NewDecoder(httpResp.Body).Decode(&status); err != nil {
		return HealthStatus{}, fmt.Errorf("inkwell: decode health: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("inkwell: server unhealthy (%d)", httpResp.StatusCode)
	}
	return status, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("inkwell: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("inkwell: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("inkwell: %s: %w", path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		return decodeAPIError(httpResp)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("inkwell: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	return apiErr
}
