package odesli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"aotw/internal/services"
)

// Client queries the Odesli links endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
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

// WithRateLimit paces requests to perSecond.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// New creates an Odesli client for the links endpoint.
func New(endpoint string, timeout time.Duration, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("odesli endpoint required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type linksResponse struct {
	LinksByPlatform map[string]struct {
		URL string `json:"url"`
	} `json:"linksByPlatform"`
}

// AppleMusicURL returns the Apple Music link for sourceURL, or "" when
// Odesli does not know the album.
func (c *Client) AppleMusicURL(ctx context.Context, sourceURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", services.Wrap(services.ErrTimeout, "odesli", "wait", "rate limiter", err)
	}

	query := url.Values{"url": {sourceURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "odesli", "links", "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "odesli", "links", "request failed", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", nil
	case http.StatusTooManyRequests:
		return "", services.Wrap(services.ErrTransient, "odesli", "links", "rate limited", nil)
	default:
		return "", services.Wrap(services.ErrExternal, "odesli", "links", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload linksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrExternal, "odesli", "links", "decode response", err)
	}
	return payload.LinksByPlatform["appleMusic"].URL, nil
}
