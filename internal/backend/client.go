// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultEndpoint is the backend address used when none is configured.
	DefaultEndpoint = "http://localhost:8000/ask"

	// DefaultTimeout bounds a whole request, connect through body read.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps the response body (10MB).
	MaxResponseSize = 10 * 1024 * 1024
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the backend client.
type Config struct {
	// Endpoint is the full URL of the /ask route.
	Endpoint string

	// Timeout for each request (default: 60s).
	Timeout time.Duration

	// UserAgent header value (default: "deskchat").
	UserAgent string

	// Logger receives one line per request. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the support backend. It is safe for concurrent use.
//
// Each Ask makes exactly one HTTP attempt; there is no retry.
type Client struct {
	endpoint   string
	userAgent  string
	timeout    time.Duration
	log        logrus.FieldLogger
	httpClient *http.Client
}

// NewClient creates a client, filling zero values in cfg with defaults.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "deskchat"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Client{
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		log:       cfg.Logger,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
	}
}

// Endpoint returns the configured /ask URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Host returns the host:port part of the endpoint, for status displays.
func (c *Client) Host() string {
	if u, err := url.Parse(c.endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return c.endpoint
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Ask sends one question and returns the backend's answer.
//
// Any failure, including a response without an "answer" string, is returned
// as a *ClientError that matches ErrBackendUnavailable.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	start := time.Now()
	resp, err := c.ask(ctx, req)

	fields := logrus.Fields{
		"session_id": req.SessionID,
		"duration":   time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		fields["kind"] = TypeOf(err).String()
		var clientErr *ClientError
		if errors.As(err, &clientErr) && clientErr.StatusCode != 0 {
			fields["status"] = clientErr.StatusCode
		}
		c.log.WithFields(fields).WithError(err).Warn("ask failed")
		return nil, err
	}

	fields["sources"] = len(resp.Sources)
	c.log.WithFields(fields).Debug("ask ok")
	return resp, nil
}

func (c *Client) ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, newError(ErrTypeUnknown, err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrTypeConnection, err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, newError(ErrTypeTimeout, err, "request timed out after %s", c.timeout)
		}
		return nil, newError(ErrTypeConnection, err, "could not reach %s", c.Host())
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := newError(ErrTypeStatus, nil, "backend returned %s", resp.Status)
		e.StatusCode = resp.StatusCode
		return nil, e
	}

	data, err := readResponse(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, newError(ErrTypeTimeout, err, "request timed out after %s", c.timeout)
		}
		return nil, newError(ErrTypeDecode, err, "failed to read response")
	}

	return decodeAnswer(data)
}

// decodeAnswer validates the response shape.
func decodeAnswer(data []byte) (*AskResponse, error) {
	var wire askResponseWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, newError(ErrTypeDecode, err, "malformed response")
	}
	if wire.Answer == nil {
		return nil, newError(ErrTypeDecode, nil, "malformed response: missing answer")
	}
	return &AskResponse{Answer: *wire.Answer, Sources: wire.Sources}, nil
}

// readResponse reads at most MaxResponseSize bytes from r.
func readResponse(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxResponseSize {
		return nil, errResponseTooLarge
	}
	return data, nil
}

var errResponseTooLarge = errors.New("response exceeds 10MB limit")

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(r, MaxResponseSize))
	r.Close()
}
