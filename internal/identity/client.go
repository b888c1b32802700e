// Package identity talks to the national-identity verification provider.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when the provider has no record for a NIN
var ErrNotFound = errors.New("identity not found")

// Identity is the provider's record for a NIN
type Identity struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile"`
}

// Client is an HTTP client for the identity provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a new identity provider client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// IsBlocklisted reports whether the NIN appears on the lender blocklist.
// The provider answers 200 for listed identities and 404 otherwise.
func (c *Client) IsBlocklisted(ctx context.Context, nin string) (bool, error) {
	resp, err := c.get(ctx, "karma", nin)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("identity provider returned error status %d", resp.StatusCode)
	}
}

// Lookup fetches the identity registered for a NIN.
func (c *Client) Lookup(ctx context.Context, nin string) (*Identity, error) {
	resp, err := c.get(ctx, "nin", nin)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("identity provider returned error status %d", resp.StatusCode)
	}

	var body struct {
		Data Identity `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &body.Data, nil
}

func (c *Client) get(ctx context.Context, resource, nin string) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("identity provider base url is empty")
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, resource, url.PathEscape(nin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to identity provider: %w", err)
	}
	return resp, nil
}
