package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/coveytown-go/internal/api/apierr"
)

// Client talks to the town service's REST API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	trace      io.Writer
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RequestError is a non-2xx response from the town service
type RequestError struct {
	Status  int
	Code    string
	Message string
	// RetryAfter is set when the server rate-limited the request
	RetryAfter string
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s (%s)", e.Message, e.Code)
	switch e.Code {
	case apierr.CodeUnauthorized:
		msg += "; the session may have ended, run 'covey join' again"
	case apierr.CodeRateLimited:
		if e.RetryAfter != "" {
			msg += fmt.Sprintf("; retry in %ss", e.RetryAfter)
		}
	}
	return msg
}

// SetTrace makes the client report each request and its status to w
func (c *Client) SetTrace(w io.Writer) {
	c.trace = w
}

// Do sends body as JSON and decodes a successful response into result.
// Error responses come back as *RequestError.
func (c *Client) Do(method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if c.trace != nil {
		_, _ = fmt.Fprintf(c.trace, "%s %s -> %d (%s)\n", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		reqErr := &RequestError{
			Status:     resp.StatusCode,
			Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:    strings.TrimSpace(string(respBody)),
			RetryAfter: resp.Header.Get("Retry-After"),
		}
		var errResp apierr.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Code != "" {
			reqErr.Code = errResp.Error.Code
			reqErr.Message = errResp.Error.Message
		}
		return reqErr
	}

	// 204 responses have no body to decode
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// Patch performs a PATCH request
func (c *Client) Patch(path string, body, result any) error {
	return c.Do(http.MethodPatch, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(path string, result any) error {
	return c.Do(http.MethodDelete, path, nil, result)
}

// townPath builds a path under /api/v1/towns/{town_id}
func townPath(townID string, parts ...string) string {
	p := "/api/v1/towns/" + url.PathEscape(townID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}
