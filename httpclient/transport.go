package httpclient

import (
	"errors"
	"net/http"

	"github.com/kbukum/authkit/resilience"
)

// HTTPClient returns a standard *http.Client that shares this client's
// timeout and circuit breaker, for libraries that drive HTTP themselves.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{
		Transport: &breakerTransport{client: c, next: c.httpClient.Transport},
		Timeout:   c.config.Timeout,
	}
}

type breakerTransport struct {
	client *Client
	next   http.RoundTripper
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.client.config.UserAgent)
	}

	var resp *http.Response
	err := t.client.cb.Execute(func() error {
		var rtErr error
		resp, rtErr = t.next.RoundTrip(req)
		if rtErr != nil {
			if req.Context().Err() != nil || isTimeout(rtErr) {
				return NewTimeoutError(rtErr)
			}
			return NewConnectionError(rtErr)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			// Counted against the breaker; the caller still reads the response.
			return ClassifyStatusCode(resp.StatusCode, nil)
		}
		return nil
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return nil, NewCircuitOpenError(t.client.config.Name)
	case resp != nil:
		return resp, nil
	default:
		return nil, err
	}
}
