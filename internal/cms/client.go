package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL        = "http://localhost:1337"
	DefaultContentTimeout = 10 * time.Second
	DefaultHealthTimeout  = 5 * time.Second

	maxErrorBody = 1 << 20
)

// Observer receives one observation per finished CMS operation.
type Observer interface {
	ObserveCMSRequest(operation, code string, d time.Duration)
}

// Client talks to the Strapi REST API. It holds no per-request state and is
// safe for concurrent use; every call is a single attempt bounded by its own
// timeout.
type Client struct {
	baseURL        string
	token          string
	http           *http.Client
	contentTimeout time.Duration
	healthTimeout  time.Duration
	logger         *zap.Logger
	observer       Observer
	now            func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeouts(content, health time.Duration) Option {
	return func(c *Client) {
		if content > 0 {
			c.contentTimeout = content
		}
		if health > 0 {
			c.healthTimeout = health
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithClock replaces the clock used to work out "today".
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		token:          token,
		http:           &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		contentTimeout: DefaultContentTimeout,
		healthTimeout:  DefaultHealthTimeout,
		logger:         zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// fetch performs one GET against <base>/api<endpoint> and decodes a 2xx body
// into T. It never returns a Go error: every outcome is a Result.
func fetch[T any](ctx context.Context, c *Client, endpoint string) Result[T] {
	ctx, cancel := context.WithTimeout(ctx, c.contentTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api"+endpoint, nil)
	if err != nil {
		c.logger.Error("failed to build cms request", zap.String("endpoint", endpoint), zap.Error(err))
		return Fail[T](unknownError())
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Fail[T](transportError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Fail[T](remoteError(resp))
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Fail[T](transportError(err))
	}
	return Ok(out)
}

// remoteError reads Strapi's {"error":{name,message,details}} body. A body
// that is missing or not JSON falls back to a generic STRAPI_ERROR.
func remoteError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Code:       CodeStrapiError,
		Message:    fmt.Sprintf("Strapi API error: %d", resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var payload strapiErrorResponse
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == nil {
		return apiErr
	}

	if payload.Error.Name != "" {
		apiErr.Code = payload.Error.Name
	}
	if payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
	}
	apiErr.Details = payload.Error.Details
	return apiErr
}

func transportError(err error) *APIError {
	if isTimeout(err) {
		return &APIError{
			Code:    CodeTimeoutError,
			Message: "Request to Strapi CMS timed out",
		}
	}
	return &APIError{
		Code:    CodeNetworkError,
		Message: "Unable to connect to Strapi CMS",
		Details: map[string]any{"originalError": err.Error()},
	}
}

func unknownError() *APIError {
	return &APIError{
		Code:    CodeUnknownError,
		Message: "An unexpected error occurred",
	}
}

// isTimeout reports deadline expiry and caller cancellation alike.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// finish logs and records the outcome of a domain operation.
func finish[T any](c *Client, op string, start time.Time, res Result[T]) Result[T] {
	code := "ok"
	if !res.Success {
		code = CodeUnknownError
		if res.Error != nil {
			code = res.Error.Code
		}
		fields := []zap.Field{zap.String("operation", op), zap.String("code", code)}
		if res.Error != nil {
			fields = append(fields, zap.Int("status", res.Error.StatusCode), zap.String("message", res.Error.Message))
		}
		c.logger.Warn("cms request failed", fields...)
	} else {
		c.logger.Debug("cms request", zap.String("operation", op), zap.Duration("took", time.Since(start)))
	}

	if c.observer != nil {
		c.observer.ObserveCMSRequest(op, code, time.Since(start))
	}
	return res
}
