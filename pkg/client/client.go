// Package client provides the HTTP fetcher for the listing API: request
// timeouts, cancellation and normalization of the response envelope into a
// decoded payload or a typed *APIError.
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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API requests.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_api_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listing_api_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 12},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_api_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 12 * time.Second

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// Envelope is the response wrapper every endpoint returns.
type Envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API origin, e.g. "http://localhost:8000".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout bounds every request, including reading the body.
	Timeout time.Duration

	// HTTPClient overrides the transport (for testing).
	HTTPClient *http.Client

	Logger *zerolog.Logger
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "get-resume-direction/0.1.0",
		Timeout:   DefaultTimeout,
	}
}

// Client performs requests against the listing API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}

	logger := log.With().Str("component", "api-client").Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "api-client").Logger()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Timeouts are enforced per request through the context.
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Get performs a GET request and decodes the envelope's data into out.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, out)
}

// Post performs a POST request with a JSON body. Writes are never retried:
// a failure is returned to the caller as is.
func (c *Client) Post(ctx context.Context, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, nil, payload, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body []byte, out any) error {
	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	ctx, cancel := context.WithTimeoutCause(ctx, c.config.Timeout, ErrTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := req.Header.Get("X-Request-ID")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Str("request_id", requestID).
		Msg("Executing API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(endpoint, "network_error", &APIError{
			Class:     ErrorClassNetwork,
			Message:   "request failed",
			RequestID: requestID,
			Err:       transportCause(ctx, err),
		})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.fail(endpoint, "network_error", &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNetwork,
			Message:    "read response body",
			RequestID:  requestID,
			Err:        transportCause(ctx, err),
		})
	}

	status := strconv.Itoa(resp.StatusCode)
	env, decodeErr := decodeEnvelope(raw)
	if env.RequestID != "" {
		requestID = env.RequestID
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	switch {
	case ok && decodeErr != nil:
		return c.fail(endpoint, status, &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassProtocol,
			Message:    "malformed response envelope",
			RequestID:  requestID,
			Err:        decodeErr,
		})
	case !ok || env.Code != 0:
		// Transport and application failures are reported the same way.
		class := ErrorClassApplication
		if !ok {
			class = classifyStatus(resp.StatusCode)
		}
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return c.fail(endpoint, status, &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Class:      class,
			Message:    msg,
			RequestID:  requestID,
		})
	}

	if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return c.fail(endpoint, status, &APIError{
				StatusCode: resp.StatusCode,
				Class:      ErrorClassProtocol,
				Message:    "decode response data",
				RequestID:  requestID,
				Err:        err,
			})
		}
	}

	apiRequestsTotal.WithLabelValues(endpoint, status).Inc()
	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status_code", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("API request succeeded")
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body []byte) (*http.Request, error) {
	u := *c.baseURL
	u.Path = u.Path + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// fail records metrics and logs for a failed request.
func (c *Client) fail(endpoint, status string, apiErr *APIError) error {
	apiErrorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
	apiRequestsTotal.WithLabelValues(endpoint, status).Inc()

	c.logger.Warn().
		Str("endpoint", endpoint).
		Int("status_code", apiErr.StatusCode).
		Int("code", apiErr.Code).
		Str("error_class", string(apiErr.Class)).
		Str("request_id", apiErr.RequestID).
		Err(apiErr.Err).
		Msg(apiErr.Message)
	return apiErr
}

// decodeEnvelope parses a response body. Non-envelope bodies (e.g. a
// framework's validation error) yield a zero Envelope and an error.
func decodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, errors.New("empty response body")
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// transportCause prefers the context cause so timeouts surface as ErrTimeout.
func transportCause(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil {
		return fmt.Errorf("%w: %v", cause, err)
	}
	return err
}

// Timeout returns the configured request timeout.
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}
