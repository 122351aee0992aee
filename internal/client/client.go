// Package client provides an HTTP client for the rent-finder REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evcraddock/rent-finder/internal/apperr"
)

// TokenSource supplies the bearer token for data calls. When a call is
// rejected with 401, RefreshAccessToken is called once and the call is
// retried with the returned token.
type TokenSource interface {
	AccessToken() string
	RefreshAccessToken(ctx context.Context) (string, error)
}

// Client is an HTTP client for the rent-finder API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource authenticates data calls with tokens from ts.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call performs an authenticated data call, refreshing the access token
// once on 401.
func (c *Client) call(ctx context.Context, method, path string, body, result any) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.AccessToken()
	}

	err := c.do(ctx, method, path, token, body, result)
	var re *apperr.RemoteError
	if c.tokens == nil || !errors.As(err, &re) || re.Status != http.StatusUnauthorized {
		return err
	}

	next, rerr := c.tokens.RefreshAccessToken(ctx)
	if rerr != nil || next == "" {
		slog.Debug("token refresh failed", "path", path, "err", rerr)
		return err
	}
	return c.do(ctx, method, path, next, body, result)
}

// do sends one request. A non-empty token is sent as a bearer token.
func (c *Client) do(ctx context.Context, method, path, token string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.RemoteError{Message: "request failed", Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "err", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.RemoteError{Status: resp.StatusCode, Message: "reading response failed", Err: err}
	}
	slog.Debug("api call", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		return remoteError(resp.StatusCode, respBody)
	}
	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := decodeData(respBody, result); err != nil {
		return &apperr.RemoteError{Message: "malformed response", Err: err}
	}
	return nil
}

func remoteError(status int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &apperr.RemoteError{Status: status, Message: errResp.Error}
	}
	return &apperr.RemoteError{Status: status, Message: http.StatusText(status)}
}

// decodeData unwraps a {"data": ...} envelope. A bare object or array is
// decoded as is.
func decodeData(body []byte, result any) error {
	var env map[string]json.RawMessage
	if json.Unmarshal(body, &env) == nil {
		if data, ok := env["data"]; ok {
			return json.Unmarshal(data, result)
		}
	}
	return json.Unmarshal(body, result)
}

func escape(id string) string {
	return url.PathEscape(id)
}
