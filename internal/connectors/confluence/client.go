package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of an error response is read for the
// failure message.
const maxErrorBody = 4 << 10

// Client is a minimal Confluence REST client. It authenticates with a
// static bearer token and throttles proactively; it never retries.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *RateLimiter
}

// NewClient creates a client from the connector config.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalised()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = cfg.Timeout

	return &Client{
		http:    hc,
		baseURL: cfg.BaseURL,
		limiter: NewRateLimiter(),
	}, nil
}

// BaseURL returns the configured instance root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs one GET request and returns the response body.
// Non-2xx statuses come back as *RateLimitError or *APIError.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.resolve(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	c.limiter.UpdateFromResponse(resp)

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RateLimitError{RetryAfter: c.limiter.RetryAfter(), URL: u}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
			URL:        u,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", u, err)
	}
	return body, nil
}

// getJSON performs a GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

// resolve joins a possibly relative path with the instance root.
func (c *Client) resolve(path string) string {
	if len(path) > 8 && (path[:7] == "http://" || path[:8] == "https://") {
		return path
	}
	if len(path) > 0 && path[0] != '/' {
		path = "/" + path
	}
	return c.baseURL + path
}

// errorMessage extracts the server's failure message, falling back to
// the raw body prefix.
func errorMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(body) == 0 {
		return "no response body"
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return string(body)
}
