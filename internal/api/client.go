// Package api is the REST transport of the back-office: one uniform contract per resource.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diewo77/backoffice/internal/metrics"
)

// Resource names as exposed by the backend.
const (
	Entities     = "entities"
	Clients      = "clients"
	Sites        = "sites"
	Categories   = "categories"
	Products     = "products"
	Offers       = "offres"
	Proformas    = "proformas"
	Invoices     = "factures"
	Reports      = "rapports"
	Affairs      = "affaires"
	Trainings    = "formations"
	Participants = "participants"
	Certificates = "attestation-formations"
)

// RequestIDHeader carries a per-call uuid, echoed by the server logs.
const RequestIDHeader = "X-Request-ID"

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every call. A request that never resolves would otherwise
// leave its store in Loading forever.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// do performs one call. body is JSON-encoded when non-nil; out is decoded when non-nil.
func (c *Client) do(ctx context.Context, resource, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(resource, method, 0, time.Since(start))
		c.logger.Warn("api call failed",
			zap.String("method", method), zap.String("path", path),
			zap.String("request_id", reqID), zap.Error(err))
		return &RemoteError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPI(resource, method, resp.StatusCode, time.Since(start))
	c.logger.Debug("api call",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)),
		zap.String("request_id", reqID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeRemoteError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Method: method, Path: path, StatusCode: resp.StatusCode,
			Message: "invalid response body", Err: err}
	}
	return nil
}

func decodeRemoteError(method, path string, resp *http.Response) error {
	re := &RemoteError{Method: method, Path: path, StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		re.Message = body.Error
		re.Details = body.Details
	} else {
		re.Message = strings.TrimSpace(string(raw))
	}
	return re
}
