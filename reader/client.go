// Package reader is the client SDK for the serial fiction platform's
// reader API. It manages the ambient session cookie, maps the
// platform's response envelope onto typed results and sentinel errors,
// and drives the coin purchase and chapter unlock flows.
package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the platform API root, e.g. "https://api.example.com".
	BaseURL string

	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration

	// HTTPClient overrides the underlying client. A cookie jar is
	// installed if it has none; the session credential lives in the
	// jar and is never handled directly.
	HTTPClient *http.Client
}

// Client talks to the reader API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.Mutex
	account *Account // cached identity, nil when logged out or unknown

	toggleMu sync.Mutex
	inFlight map[string]bool // engagement toggles keyed by series ID
}

// New creates a Client for the given platform.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("reader: BaseURL is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("reader: cookie jar: %w", err)
		}
		hc.Jar = jar
	}
	if hc.Timeout == 0 {
		hc.Timeout = cfg.Timeout
		if hc.Timeout == 0 {
			hc.Timeout = 30 * time.Second
		}
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     hc,
		inFlight: make(map[string]bool),
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// do sends a request and decodes the success envelope's data into out.
// Failure envelopes become *APIError; transport and decode problems
// come back as plain wrapped errors.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("reader: encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("reader: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reader: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reader: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("reader: %s %s: unexpected response (status %d): %w",
			method, path, resp.StatusCode, err)
	}

	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Message = env.Error.Message
			if env.Error.StatusCode != 0 {
				apiErr.StatusCode = env.Error.StatusCode
			}
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("reader: decode response: %w", err)
		}
	}
	return nil
}
