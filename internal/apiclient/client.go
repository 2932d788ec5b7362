// Package apiclient is the REST client API-lane tests drive the system under
// test with.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kamilpajak/qaharness/internal/config"
	"github.com/kamilpajak/qaharness/internal/logging"
	"github.com/kamilpajak/qaharness/internal/retry"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// Options configures a Client
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Retry         retry.Policy
	HTTPClient    *http.Client
	Logger        logrus.FieldLogger
}

// OptionsFromConfig maps the api configuration section onto Options.
func OptionsFromConfig(cfg config.APIConfig, log logrus.FieldLogger) Options {
	return Options{
		BaseURL:       cfg.BaseURL,
		Timeout:       cfg.Timeout,
		RatePerSecond: cfg.RatePerSecond,
		Retry:         retry.Policy{MaxAttempts: cfg.MaxAttempts, BaseDelay: cfg.BaseDelay},
		Logger:        log,
	}
}

// Client handles API interactions with the system under test
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
	log        logrus.FieldLogger
}

// Response is a completed API call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
	Duration   time.Duration
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Retryable reports whether the server signalled a temporary condition.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// New creates a Client. BaseURL is required.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, &config.MissingKeyError{Key: "api.base_url"}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	burst := 1
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		burst = max(1, int(opts.RatePerSecond))
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		policy:     opts.Retry,
		log:        log.WithField("component", "apiclient"),
	}, nil
}

// GetJSON fetches path and decodes the JSON body into out when out is non-nil.
func (c *Client) GetJSON(ctx context.Context, path string, out any) (*Response, error) {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON sends body as JSON and decodes the response into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return resp, err
	}

	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	ctx, correlationID := logging.EnsureCorrelationID(ctx)
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	log := logging.FromContext(ctx, c.log).WithFields(logrus.Fields{"method": method, "url": url})

	start := time.Now()
	var resp *Response

	res := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(logging.CorrelationHeader, correlationID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).Debug("request failed, retrying")
			return retry.Transient(err)
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return retry.Transient(fmt.Errorf("failed to read response body: %w", err))
		}

		resp = &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}

		if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
			statusErr := &StatusError{Method: method, URL: url, StatusCode: httpResp.StatusCode, Body: truncateBody(data)}
			if statusErr.Retryable() {
				log.WithField("status", httpResp.StatusCode).Debug("server error, retrying")
				return retry.Transient(statusErr)
			}
			return statusErr
		}
		return nil
	})

	if resp != nil {
		resp.Attempts = res.Attempts
		resp.Duration = time.Since(start)
	}

	entry := log.WithFields(logrus.Fields{"attempts": res.Attempts, "outcome": res.Outcome.String()})
	if res.Outcome != retry.Succeeded {
		entry.WithError(res.Err).Warn("api request failed")
		var statusErr *StatusError
		if errors.As(res.Err, &statusErr) {
			return resp, statusErr
		}
		return resp, fmt.Errorf("%s %s: %w", method, url, res.Err)
	}
	entry.WithField("status", resp.StatusCode).Debug("api request completed")
	return resp, nil
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
