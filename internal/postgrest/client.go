// Package postgrest is a typed HTTP client for the backend: the PostgREST
// collection under /rest/v1 and the token endpoints under /auth/v1. It maps
// transport failures and interesting status codes onto the shared sentinel
// errors so callers can branch with errors.Is.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/logging"
)

// Client talks to one backend project. Safe for concurrent use.
type Client struct {
	serviceURL string
	apiKey     string
	http       *http.Client
	timeout    time.Duration
	log        logging.Logger
}

// New returns a Client for the project at serviceURL (scheme and host, no
// trailing path). timeout bounds every individual request.
func New(serviceURL, apiKey string, timeout time.Duration, log logging.Logger) *Client {
	return &Client{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		apiKey:     apiKey,
		http:       &http.Client{},
		timeout:    timeout,
		log:        log,
	}
}

func (c *Client) restURL(pathAndQuery string) string {
	return c.serviceURL + "/rest/v1" + pathAndQuery
}

func (c *Client) authURL(pathAndQuery string) string {
	return c.serviceURL + "/auth/v1" + pathAndQuery
}

// newRequest builds a request with the standard headers. token may be empty
// (auth endpoints authenticate through the body, not the bearer header).
func (c *Client) newRequest(ctx context.Context, method, url string, token string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes req and reads the full body. Transport failures (DNS,
// connection refused, per-call timeout) come back wrapped in
// common.ErrUnavailable; status codes are not inspected here.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", common.ErrUnavailable, err)
	}
	return resp.StatusCode, data, nil
}

// checkStatus maps a response status onto the error taxonomy.
func checkStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case status == http.StatusConflict:
		return common.ErrConflict
	case status >= 500:
		return fmt.Errorf("%w: %v", common.ErrUnavailable, &StatusError{Code: status, Body: string(body)})
	default:
		return &StatusError{Code: status, Body: string(body)}
	}
}

// Ping checks backend reachability with the public key only.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, c.restURL("/links?select=id&limit=1"), c.apiKey, nil)
	if err != nil {
		return err
	}
	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	return checkStatus(status, body)
}
