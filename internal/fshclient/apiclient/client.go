// Package apiclient is a REST client for fshd's admin API, grounded on the
// teacher's pkg/apiclient.Client.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to fshd's admin HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New creates a Client bound to baseURL (e.g. "http://127.0.0.1:8181").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithToken returns a copy of c that authenticates with the bearer token.
func (c *Client) WithToken(token string) *Client {
	return &Client{baseURL: c.baseURL, httpClient: c.httpClient, token: token}
}

func (c *Client) do(method, path string, result any) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var problem Problem
		if json.Unmarshal(body, &problem) == nil && problem.Detail != "" {
			problem.Status = resp.StatusCode
			return &problem
		}
		return &Problem{Status: resp.StatusCode, Title: "request failed", Detail: string(body)}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, result)
}

func (c *Client) delete(path string, result any) error {
	return c.do(http.MethodDelete, path, result)
}

func withQuery(path string, query map[string]string) string {
	if len(query) == 0 {
		return path
	}
	buf := bytes.NewBufferString(path)
	sep := "?"
	for k, v := range query {
		fmt.Fprintf(buf, "%s%s=%s", sep, k, v)
		sep = "&"
	}
	return buf.String()
}
