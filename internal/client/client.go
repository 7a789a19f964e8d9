// Package client talks to the trazabilidad REST API.  It is the remote
// collaborator of the session controller and of the console screens.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

// APIError is a non-2xx answer.  Message is the server's {"error"} text
// and may be empty when the body had another shape.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// UserMessage is the text safe to show to a person.
func (e *APIError) UserMessage() string { return e.Message }

// IsUnauthorized reports whether err is a 401 from the API, which the
// console treats as an ended session.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client is safe for concurrent use.
type Client struct {
	base  *url.URL
	http  *http.Client
	token func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithToken sets the bearer token source, typically Controller.Token.
func WithToken(fn func() string) Option { return func(c *Client) { c.token = fn } }

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q is not absolute", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 10 * time.Second}, token: func() string { return "" }}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginResp struct {
	Token   string           `json:"token"`
	User    model.UserRecord `json:"user"`
	Landing string           `json:"landing"`
}

// Login exchanges credentials for a token.  It satisfies
// session.Authenticator.
func (c *Client) Login(ctx context.Context, email, password string) (string, model.UserRecord, error) {
	var out loginResp
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out, false); err != nil {
		return "", model.UserRecord{}, err
	}
	if out.Token == "" {
		return "", model.UserRecord{}, errors.New("client: login response without token")
	}
	return out.Token, out.User, nil
}

// Logout ends the server session of the current token.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil, false)
}

// Get decodes the data field of GET path into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, true)
}

// Post sends in as JSON and decodes the data field into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out, true)
}

// Put sends in as JSON and decodes the data field into out.
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, in, out, true)
}

// Raw returns the undecoded body of GET path, used for HTML reports.
func (c *Client) Raw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, apiError(resp.StatusCode, b)
	}
	return b, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, envelope bool) error {
	resp, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return apiError(resp.StatusCode, b)
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if envelope {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(b, &env); err != nil {
			return fmt.Errorf("client: decode %s %s: %w", method, path, err)
		}
		b = env.Data
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func apiError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	return &APIError{Status: status, Message: payload.Error}
}
