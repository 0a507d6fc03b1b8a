// Package accounting is the thin client for the provider's resource API.
// Every call needs a bearer token and a tenant id; the core hands both in
// per request, so the client itself carries no mutable auth state.
package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ledgerdemo/pkg/config"
)

// ExternalAPIError is any non-2xx answer from the resource API. The core
// does not interpret these; status and body pass through to the caller.
type ExternalAPIError struct {
	Status int
	Body   string
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("accounting api: status %d: %s", e.Status, e.Body)
}

type Client struct {
	baseURL      string
	tenantHeader string
	httpClient   *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.APIBaseURL, "/"),
		tenantHeader: cfg.TenantHeader,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Do performs one resource API call. body may be nil; the decoded JSON
// response comes back raw so each demo route can pick what to display.
func (c *Client) Do(ctx context.Context, accessToken, tenantID, method, path string, body any) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set(c.tenantHeader, tenantID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("accounting api: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("accounting api read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExternalAPIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if len(b) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(b), nil
}

func (c *Client) Get(ctx context.Context, accessToken, tenantID, path string) (json.RawMessage, error) {
	return c.Do(ctx, accessToken, tenantID, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, accessToken, tenantID, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, accessToken, tenantID, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, accessToken, tenantID, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, accessToken, tenantID, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, accessToken, tenantID, path string) (json.RawMessage, error) {
	return c.Do(ctx, accessToken, tenantID, http.MethodDelete, path, nil)
}
