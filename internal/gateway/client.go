package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sakashimaa/etech-storefront/internal/metrics"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxBodySize = 4 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	auth    Auth
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) {
		c.cb = cb
	}
}

func WithDefaultAuth(auth Auth) Option {
	return func(c *Client) {
		c.auth = auth
	}
}

func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func NewBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return utils.NewBreaker("StorefrontBackend", logger, func(err error) bool {
		return !countsAsFailure(err)
	})
}

func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = NewHTTPClient(cfg.Timeout)
	}
	if c.cb == nil {
		c.cb = NewBreaker(logger)
	}

	return c
}

// With returns a client sharing transport and breaker with c but using auth as its default caller.
func (c *Client) With(auth Auth) *Client {
	clone := *c
	clone.auth = auth
	return &clone
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request and decodes the response payload into out. It never retries.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	auth := authFrom(ctx, c.auth)

	req, err := c.newRequest(ctx, auth, method, path, body)
	if err != nil {
		return err
	}

	payload, err := utils.ExecuteWithBreaker(c.cb, func() ([]byte, error) {
		return c.send(req)
	})
	if err != nil {
		return c.handleError(ctx, auth, method, path, err)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	if err := decodePayload(payload, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, auth Auth, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth != nil {
		token, err := auth.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(req.Method, "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
			Method:  req.Method,
			Path:    req.URL.Path,
		}
	}

	return raw, nil
}

func (c *Client) handleError(ctx context.Context, auth Auth, method, path string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		mylogger.Warn(ctx, c.logger, "Circuit breaker open", zap.String("path", path))
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if StatusCode(err) == http.StatusUnauthorized {
		metrics.UnauthorizedResponses.Inc()
		mylogger.Info(
			ctx,
			c.logger,
			"backend rejected credentials",
			zap.String("method", method),
			zap.String("path", path),
			zap.Bool("redirect", !RedirectSuppressed(ctx)),
		)

		if auth != nil && unauthorizedHandled(ctx) {
			auth.HandleUnauthorized(ctx)
		}
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	mylogger.Warn(
		ctx,
		c.logger,
		"backend request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", StatusCode(err)),
		zap.Error(err),
	)
	return err
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decodePayload(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		if string(env.Data) == "null" {
			return nil
		}
		return json.Unmarshal(env.Data, out)
	}

	return json.Unmarshal(raw, out)
}

func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return strings.TrimSpace(string(raw))
	}

	if env.Message != "" {
		return env.Message
	}
	return env.Error
}
