package httpclient

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method.
	Method string
	// URL is the absolute request URL.
	URL string
	// Headers are request-specific headers merged over the client defaults.
	Headers map[string]string
	// BearerToken sets the Authorization header when non-empty.
	BearerToken string
}

// Response is the result of an HTTP request.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
