package user

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"stripdemo/internal/version"
)

// maxResponseBody caps how much of a backend reply is kept
const maxResponseBody = 1 << 20

// Response is the backend's reply to a submission
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Poster sends a JSON body to url. A returned error means no response was
// received; any HTTP status is reported through the Response.
type Poster interface {
	Post(ctx context.Context, url string, body []byte) (*Response, error)
}

// HTTPPoster is the net/http Poster
type HTTPPoster struct {
	client    *http.Client
	userAgent string
}

// NewHTTPPoster creates a poster. A zero timeout means requests are bounded
// only by their context.
func NewHTTPPoster(timeout time.Duration) *HTTPPoster {
	return &HTTPPoster{
		client:    &http.Client{Timeout: timeout},
		userAgent: version.UserAgent(),
	}
}

// Post issues a single POST with JSON headers
func (p *HTTPPoster) Post(ctx context.Context, url string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
