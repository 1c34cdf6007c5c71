// Package api implements the bill ports against the remote Billed REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"billed/internal/core"
	"billed/internal/store"
)

// Ensure interface conformance
var (
	_ store.BillLister = (*Client)(nil)
	_ store.BillWriter = (*Client)(nil)
	_ store.BillGetter = (*Client)(nil)
)

// TokenFunc returns the bearer token of the caller, if any.
type TokenFunc func(ctx context.Context) string

type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   TokenFunc
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:5678).
func New(baseURL string, token TokenFunc) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url scheme %q", u.Scheme)
	}
	return &Client{baseURL: u, http: newHTTPClient(), token: token}, nil
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// newHTTPClient returns a pooled client with bounded timeouts.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}
}

// ListBills calls GET /bills. The API scopes results to the bearer's user;
// owner is applied again locally so an admin token can still ask for one employee.
func (c *Client) ListBills(ctx context.Context, owner string) ([]core.Bill, error) {
	var raw []store.BillJSON
	if err := c.do(ctx, http.MethodGet, "/bills", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]core.Bill, 0, len(raw))
	for _, r := range raw {
		b := r.ToCore()
		if owner != "" && b.Email != "" && b.Email != owner {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (c *Client) GetBill(ctx context.Context, id string) (core.Bill, error) {
	var raw store.BillJSON
	if err := c.do(ctx, http.MethodGet, "/bills/"+url.PathEscape(id), nil, &raw); err != nil {
		if code, ok := store.StatusCode(err); ok && code == http.StatusNotFound {
			return core.Bill{}, fmt.Errorf("get bill %s: %w", id, store.ErrNotFound)
		}
		return core.Bill{}, err
	}
	return raw.ToCore(), nil
}

func (c *Client) CreateBill(ctx context.Context, b core.Bill) (string, error) {
	if err := b.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	var created store.BillJSON
	if err := c.do(ctx, http.MethodPost, "/bills", store.FromCore(b), &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("api returned no bill id")
	}
	return created.ID, nil
}

// do performs a JSON request. Non-2xx responses become *store.StatusError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	u := c.baseURL.JoinPath(path)
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
	}
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Bills API call",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return store.NewStatusError(resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
