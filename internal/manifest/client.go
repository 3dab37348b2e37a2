package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"mineardmg/internal/services"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTimeout = 30 * time.Second

// Client fetches launcher metadata.
type Client struct {
	manifestURL string
	userAgent   string
	httpClient  *http.Client
}

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

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// New creates a metadata client for the version list at manifestURL.
func New(manifestURL string, opts ...Option) (*Client, error) {
	manifestURL = strings.TrimSpace(manifestURL)
	if manifestURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "new client", "version manifest url required", nil)
	}
	client := &Client{
		manifestURL: manifestURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Versions downloads the version list.
func (c *Client) Versions(ctx context.Context) (*VersionList, error) {
	var list VersionList
	if err := c.getJSON(ctx, "version list", c.manifestURL, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ClientManifest downloads the manifest for v.
func (c *Client) ClientManifest(ctx context.Context, v Version) (*ClientManifest, error) {
	var m ClientManifest
	if err := c.getJSON(ctx, "client manifest", v.URL, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		m.ID = v.ID
	}
	return &m, nil
}

// AssetIndex downloads the asset index referenced by m.
func (c *Client) AssetIndex(ctx context.Context, m *ClientManifest) (*AssetIndex, error) {
	var index AssetIndex
	if err := c.getJSON(ctx, "asset index", m.AssetIndex.URL, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// ClientJar downloads the client jar referenced by m.
func (c *Client) ClientJar(ctx context.Context, m *ClientManifest) ([]byte, error) {
	jar, err := m.ClientJar()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "client jar", "", err)
	}
	return c.get(ctx, "client jar", jar.URL)
}

func (c *Client) getJSON(ctx context.Context, what, url string, dst any) error {
	data, err := c.get(ctx, what, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return services.Wrap(services.ErrValidation, "manifest", "decode "+what, "", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, what, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, services.Wrap(services.ErrValidation, "manifest", what, "missing url", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "manifest", what, "build request", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "manifest", what, fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrNetwork, "manifest", what, fmt.Sprintf("%s returned %d (latency=%v)", url, resp.StatusCode, latency), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "manifest", what, "read body", err)
	}
	return data, nil
}
