// Package stripe is a form-encoded client for the Stripe REST API. Every call
// performs exactly one provider operation and reports failures as *Error.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAPIBase    = "https://api.stripe.com"
	DefaultAPIVersion = "2024-06-20"
	DefaultTimeout    = 30 * time.Second
)

// ErrMissingSecretKey is returned before any network call when no key is configured.
var ErrMissingSecretKey = &Error{Kind: KindAuthentication, Message: "Stripe secret key is not configured."}

// Credentials are resolved on every call so that mode or key changes apply
// without rebuilding the client.
type Credentials struct {
	SecretKey string
	AccountID string
}

type KeyFunc func() Credentials

// Recorder observes each provider call.
type Recorder interface {
	RecordGatewayCall(ctx context.Context, operation string, statusCode int, duration time.Duration)
}

type Config struct {
	APIBase    string
	APIVersion string
	Timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

type Client struct {
	base     string
	version  string
	keys     KeyFunc
	http     *http.Client
	log      *zap.Logger
	recorder Recorder
}

func NewClient(cfg Config, keys KeyFunc, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = DefaultAPIVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		base:    base,
		version: version,
		keys:    keys,
		http:    &http.Client{Timeout: timeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("stripe.client")
	return c
}

type request struct {
	operation      string
	method         string
	path           string
	values         form
	idempotencyKey string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	creds := Credentials{}
	if c.keys != nil {
		creds = c.keys()
	}
	secret := strings.TrimSpace(creds.SecretKey)
	if secret == "" {
		return ErrMissingSecretKey
	}

	target := c.base + req.path
	var body io.Reader
	if len(req.values.Values) > 0 {
		encoded := req.values.Encode()
		if req.method == http.MethodGet || req.method == http.MethodDelete {
			target += "?" + encoded
		} else {
			body = strings.NewReader(encoded)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return &Error{Kind: KindInvalidRequest, Message: err.Error()}
	}
	httpReq.Header.Set("Authorization", "Bearer "+secret)
	httpReq.Header.Set("Stripe-Version", c.version)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.idempotencyKey)
	}
	if account := strings.TrimSpace(creds.AccountID); account != "" {
		httpReq.Header.Set("Stripe-Account", account)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(ctx, req.operation, 0, start, "")
		return newTransportError(err)
	}
	defer resp.Body.Close()

	requestID := resp.Header.Get("Request-Id")
	c.observe(ctx, req.operation, resp.StatusCode, start, requestID)

	if resp.StatusCode >= http.StatusBadRequest {
		var payload errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			c.log.Warn("undecodable stripe error body",
				zap.String("operation", req.operation),
				zap.Int("status_code", resp.StatusCode),
				zap.Error(err),
			)
		}
		return newResponseError(resp.StatusCode, requestID, payload)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Kind:       KindAPI,
			Message:    "Invalid response from the payment provider.",
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
		}
	}
	return nil
}

func (c *Client) observe(ctx context.Context, operation string, status int, start time.Time, requestID string) {
	elapsed := time.Since(start)
	c.log.Debug("stripe call",
		zap.String("operation", operation),
		zap.Int("status_code", status),
		zap.Duration("duration", elapsed),
		zap.String("request_id", requestID),
	)
	if c.recorder != nil {
		c.recorder.RecordGatewayCall(ctx, operation, status, elapsed)
	}
}

func resourcePath(prefix, id string) string {
	return prefix + "/" + url.PathEscape(id)
}

func requireID(id, what string) error {
	if strings.TrimSpace(id) == "" {
		return &Error{Kind: KindInvalidRequest, Param: "id", Message: "Missing " + what + " id."}
	}
	return nil
}
