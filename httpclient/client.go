package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kbukum/authkit/resilience"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Client is an HTTP client with a deadline and a circuit breaker.
type Client struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	breaker := cfg.CircuitBreaker
	breaker.Name = cfg.Name
	if breaker.IsFailure == nil {
		breaker.IsFailure = IsUpstreamFailure
	}

	return &Client{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		cb:     resilience.NewCircuitBreaker(breaker),
	}, nil
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *resilience.CircuitBreaker { return c.cb }

// Do executes a request. Non-2xx responses are returned together with a
// classified *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := c.cb.Execute(func() error {
		var execErr error
		resp, execErr = c.execute(ctx, req)
		return execErr
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, NewCircuitOpenError(c.config.Name)
	}
	return resp, err
}

// GetJSON performs a GET and decodes a JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL, bearer string, out any) error {
	resp, err := c.Do(ctx, Request{
		Method:      http.MethodGet,
		URL:         rawURL,
		BearerToken: bearer,
		Headers:     map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func decode(resp *Response, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return NewDecodeError(err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}
	if classErr := ClassifyStatusCode(resp.StatusCode, body); classErr != nil {
		return result, classErr
	}
	return result, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, http.NoBody)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}
	return httpReq, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
