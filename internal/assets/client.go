package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"mineardmg/internal/services"
)

const defaultTimeout = 30 * time.Second

// Fetcher retrieves the raw bytes stored under a content hash.
type Fetcher interface {
	Fetch(ctx context.Context, hash string) ([]byte, error)
}

// Client fetches assets over HTTP.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// WithLimiter throttles requests through limiter. A nil limiter disables throttling.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewLimiter builds a limiter for perSecond requests, or nil when perSecond is not positive.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := max(int(perSecond), 1)
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// New creates an asset client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "new client", "asset base url required", nil)
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// URL returns the CDN location of hash under baseURL.
func URL(baseURL, hash string) string {
	return strings.TrimRight(baseURL, "/") + "/" + hash[:2] + "/" + hash
}

// Fetch downloads the object stored under hash.
func (c *Client) Fetch(ctx context.Context, hash string) ([]byte, error) {
	hash = strings.TrimSpace(hash)
	if len(hash) < 2 {
		return nil, services.Wrap(services.ErrValidation, "fetch", "hash", fmt.Sprintf("hash %q shorter than 2 characters", hash), nil)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, services.Wrap(services.ErrNetwork, "fetch", "rate limit", "", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, URL(c.baseURL, hash), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "fetch", "build request", "", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "fetch", "request", fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, services.Wrap(services.ErrNetwork, "fetch", "request", fmt.Sprintf("asset cdn returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "fetch", "read body", "", err)
	}
	return data, nil
}
