// Package pr2 talks to a PR2 level server: exact level lookups by id and
// version, and paged level searches.
//
// Both endpoints answer with application/x-www-form-urlencoded bodies, the same
// container format used by downloaded level files.
package pr2

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "PR2PS-LevelImporter/1.0"

	// maxBodySize caps level payloads; real levels stay well under 1 MB.
	maxBodySize = 4 * 1024 * 1024
)

// Client interfaces with the PR2 level server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a new PR2 client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindByID downloads the raw level container for levelID. A nil version asks
// the server for the newest one.
func (c *Client) FindByID(ctx context.Context, levelID int64, version *int) ([]byte, error) {
	u, err := url.Parse(fmt.Sprintf("%s/levels/%d.txt", c.baseURL, levelID))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if version != nil {
		q := u.Query()
		q.Set("version", strconv.Itoa(*version))
		u.RawQuery = q.Encode()
	}

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	if msg, ok := bodyError(body); ok {
		if strings.Contains(strings.ToLower(msg), "not found") {
			return nil, ErrLevelNotFound
		}
		return nil, &RemoteError{Message: msg}
	}

	return body, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrLevelNotFound
	}
	if resp.StatusCode >= 500 {
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("response exceeds %d bytes", maxBodySize)
	}

	return body, nil
}

// bodyError extracts the message of an "error=..." response body.
func bodyError(body []byte) (string, bool) {
	if !strings.HasPrefix(string(body), "error=") {
		return "", false
	}
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return strings.TrimPrefix(string(body), "error="), true
	}
	return values.Get("error"), true
}
