// Package gateway is the client side of the credential-shielding relay: every
// remote call the widget makes goes through one endpoint, routed by target.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	assistant "github.com/creastat/assistant"
	"github.com/creastat/assistant/internal/httpclient"
	"github.com/creastat/assistant/internal/observability"
)

const maxResponseBytes = 8 << 20

// Caller sends a payload to a relay target and returns the raw JSON result.
// Every failure is a *assistant.GatewayError.
type Caller interface {
	Call(ctx context.Context, target Target, payload any) (json.RawMessage, error)
}

// Config holds the relay endpoint configuration.
type Config struct {
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements Caller over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: relay endpoint is required", assistant.ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("%w: relay endpoint: %v", assistant.ErrInvalidConfig, err)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.Logger()
	}

	return &Client{
		endpoint: cfg.Endpoint,
		http:     cfg.HTTPClient,
		logger:   cfg.Logger,
		tracer:   observability.Tracer(),
	}, nil
}

// Call implements Caller. It never retries.
func (c *Client) Call(ctx context.Context, target Target, payload any) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "gateway.call", trace.WithAttributes(
		attribute.String("gateway.target", string(target)),
	))
	defer span.End()

	log := observability.FromContext(ctx, c.logger).With("target", target)

	raw, status, err := c.do(ctx, target, payload)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("gateway call failed", "status", status, "error", err)
		return nil, err
	}

	log.Debug("gateway call succeeded", "status", status, "bytes", len(raw))
	return raw, nil
}

func (c *Client) do(ctx context.Context, target Target, payload any) (json.RawMessage, int, error) {
	fail := func(status int, msg string, err error) (json.RawMessage, int, error) {
		return nil, status, &assistant.GatewayError{Target: string(target), Message: msg, Status: status, Err: err}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fail(0, "encode payload", err)
	}
	body, err := json.Marshal(RelayRequest{TargetAPI: target, Payload: encoded})
	if err != nil {
		return fail(0, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(0, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, err.Error(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(resp.StatusCode, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, errorMessage(resp.StatusCode, data), nil)
	}

	if !json.Valid(data) {
		return fail(resp.StatusCode, "malformed response body", nil)
	}
	return json.RawMessage(data), resp.StatusCode, nil
}

// errorMessage extracts {"error": "..."} from a failed response, or
// synthesizes one from the status code when the body is not JSON.
func errorMessage(status int, data []byte) string {
	var body ErrorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return fmt.Sprintf("API request failed: %d", status)
	}
	if body.Error == "" {
		return "Unknown API error"
	}
	return body.Error
}

// Compile-time check that Client implements Caller.
var _ Caller = (*Client)(nil)
