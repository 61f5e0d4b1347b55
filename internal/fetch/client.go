package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CacheMode selects the cache directive sent with a request.
type CacheMode int

const (
	CacheDefault CacheMode = iota
	// CacheNoCache asks intermediaries to revalidate before answering.
	CacheNoCache
	// CacheNoStore forbids any cached copy.
	CacheNoStore
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// RequestOption customizes an outgoing request.
type RequestOption func(*http.Request)

// WithCache sets Cache-Control and Pragma for the given mode.
func WithCache(mode CacheMode) RequestOption {
	return func(r *http.Request) {
		switch mode {
		case CacheNoCache:
			r.Header.Set("Cache-Control", "no-cache")
			r.Header.Set("Pragma", "no-cache")
		case CacheNoStore:
			r.Header.Set("Cache-Control", "no-store")
			r.Header.Set("Pragma", "no-cache")
		}
	}
}

// WithHeader sets an arbitrary request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// WithBearer sets an Authorization bearer token. Empty tokens are ignored.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAccept sets the Accept header.
func WithAccept(mime string) RequestOption {
	return WithHeader("Accept", mime)
}

// Client issues GET requests and classifies failures into the package taxonomy.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient wraps hc. A nil hc gets a client with no overall timeout, since
// deadlines are applied per call through the context.
func NewClient(hc *http.Client, userAgent string) *Client {
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if userAgent == "" {
		userAgent = "labportal"
	}
	return &Client{httpClient: hc, userAgent: userAgent}
}

// Get performs a GET and returns the response regardless of status. The caller
// must close the body. Transport failures are classified as ErrTimeout or ErrNetwork.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request %q: %w", ErrNetwork, url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for _, o := range opts {
		o(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("GET %s: %w", url, err))
	}
	return resp, nil
}

// GetBytes performs a GET, requires a 2xx status, and returns the body.
func (c *Client) GetBytes(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	resp, err := c.Get(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("read %s: %w", url, err))
	}
	return body, nil
}

// GetJSON performs a GET, requires a 2xx status, and decodes the body into v.
// A body that is not valid JSON yields ErrParse.
func (c *Client) GetJSON(ctx context.Context, url string, v any, opts ...RequestOption) error {
	opts = append([]RequestOption{WithAccept("application/json")}, opts...)
	body, err := c.GetBytes(ctx, url, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrParse, url, err)
	}
	return nil
}

// Ping reports whether url answers a no-store GET with a 2xx status.
func (c *Client) Ping(ctx context.Context, url string, opts ...RequestOption) bool {
	opts = append([]RequestOption{WithCache(CacheNoStore)}, opts...)
	resp, err := c.Get(ctx, url, opts...)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
