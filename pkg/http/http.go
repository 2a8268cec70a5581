// Package http is the shared outbound HTTP client for the content host and
// the tenant platform.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
)

// DefaultMaxBodySize bounds response bodies when Options.MaxBodySize is unset.
const DefaultMaxBodySize = 32 << 20

// Options configure a Client.
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	MaxBodySize int64
	// Transport overrides the round tripper, mainly for tests.
	Transport http.RoundTripper
}

// Request describes one outbound call.
type Request struct {
	Method      string
	URL         string
	Body        io.Reader
	ContentType string
	Accept      string
	Auth        auth.Authenticator
}

// Response is a fully read, size-limited response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs size-limited requests and maps non-2xx statuses to
// *errors.UpstreamRequestError.
type Client struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// NewClient creates a new Client.
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = "anabuild/1.0"
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	return &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		userAgent:   opts.UserAgent,
		maxBodySize: opts.MaxBodySize,
	}
}

// Get is a shorthand for a GET request.
func (c *Client) Get(ctx context.Context, url string, a auth.Authenticator) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url, Auth: a})
}

// Do sends req and reads the whole response body.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	body := req.Body
	if body == nil {
		body = http.NoBody
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if err := auth.Apply(req.Auth, httpReq); err != nil {
		return nil, errors.Wrap(err, "failed to apply credentials")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, req.URL)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, c.maxBodySize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", req.URL)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewUpstreamRequestError(req.URL, resp.StatusCode, data)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", errors.ErrResponseTooLarge, limit)
	}
	return data, nil
}
