// Package client provides a basic REST client for Outbox
package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/inbucket/outbox/pkg/draft"
	"github.com/inbucket/outbox/pkg/rest/model"
)

// Client accesses the Outbox REST API v1
type Client struct {
	restClient
}

// Option adjusts a Client.
type Option func(*http.Client)

// WithTransport sets the HTTP transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *http.Client) {
		c.Transport = transport
	}
}

// WithTimeout sets the overall request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *http.Client) {
		c.Timeout = timeout
	}
}

// New creates a new v1 REST API client given the base URL of an Outbox server, ex:
// "http://localhost:9025"
func New(baseURL string, opts ...Option) (*Client, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	hc := &http.Client{Timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(hc)
	}
	return &Client{restClient{client: hc, baseURL: parsedURL}}, nil
}

// Render returns the RFC 5322 source the server builds for d.
func (c *Client) Render(ctx context.Context, d *draft.Draft) ([]byte, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	uri := "/api/v1/render"
	resp, err := c.do(ctx, "POST", uri, body)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := checkStatus("POST", uri, resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// Send asks the server to build and deliver d.
func (c *Client) Send(ctx context.Context, d *draft.Draft) (*model.JSONSentV1, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	sent := &model.JSONSentV1{}
	if err := c.doJSON(ctx, "POST", "/api/v1/send", body, sent); err != nil {
		return nil, err
	}
	return sent, nil
}

// Session returns the transport session properties of the server.
func (c *Client) Session(ctx context.Context) (map[string]string, error) {
	props := make(map[string]string)
	if err := c.doJSON(ctx, "GET", "/api/v1/session", nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}
