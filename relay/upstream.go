package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/creastat/assistant/conversation"
	"github.com/creastat/assistant/gateway"
	"github.com/creastat/assistant/internal/httpclient"
	"github.com/creastat/assistant/plan"
)

const maxUpstreamBytes = 8 << 20

// Upstream errors the handler maps to statuses.
var (
	ErrNotConfigured     = errors.New("upstream credential not configured")
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrMalformedUpstream = errors.New("malformed upstream response")
)

// Response is an upstream answer passed through to the widget.
type Response struct {
	Status int
	Body   json.RawMessage
}

// Upstream forwards one payload.
type Upstream interface {
	Forward(ctx context.Context, payload json.RawMessage) (*Response, error)
}

// HTTPUpstream posts the payload as-is to URL with a bearer credential.
type HTTPUpstream struct {
	URL        string
	Credential string
	Client     *http.Client
}

// NewHTTPUpstream creates an HTTP upstream. A nil client uses the shared defaults.
func NewHTTPUpstream(url, credential string, client *http.Client) *HTTPUpstream {
	if client == nil {
		client = httpclient.New()
	}
	return &HTTPUpstream{URL: url, Credential: credential, Client: client}
}

// Forward implements Upstream.
func (u *HTTPUpstream) Forward(ctx context.Context, payload json.RawMessage) (*Response, error) {
	if u.Credential == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.Credential)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: status %d", ErrMalformedUpstream, resp.StatusCode)
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// DefaultModel is the completion model used when neither the payload nor the
// plan table names one.
const DefaultModel = "gpt-4o-mini"

// CompletionUpstream adapts the widget's {messages, plan} payload to an
// OpenAI-compatible chat completions request.
type CompletionUpstream struct {
	HTTP         *HTTPUpstream
	DefaultModel string
	Models       map[plan.ID]string
}

type completionPayload struct {
	Model    string              `json:"model,omitempty"`
	Messages []conversation.Turn `json:"messages"`
	Plan     plan.ID             `json:"plan,omitempty"`
}

type chatRequest struct {
	Model    string              `json:"model"`
	Messages []conversation.Turn `json:"messages"`
}

// Forward implements Upstream.
func (u *CompletionUpstream) Forward(ctx context.Context, payload json.RawMessage) (*Response, error) {
	if u.HTTP == nil {
		return nil, ErrNotConfigured
	}

	var in completionPayload
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(in.Messages) == 0 {
		return nil, fmt.Errorf("%w: no messages", ErrInvalidPayload)
	}

	body, err := json.Marshal(chatRequest{Model: u.model(in), Messages: in.Messages})
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}
	return u.HTTP.Forward(ctx, body)
}

func (u *CompletionUpstream) model(in completionPayload) string {
	if in.Model != "" {
		return in.Model
	}
	if m := u.Models[in.Plan]; m != "" {
		return m
	}
	if u.DefaultModel != "" {
		return u.DefaultModel
	}
	return DefaultModel
}

// StaticLicenses accepts every license as Variant. Development only.
type StaticLicenses struct {
	Variant string
}

// Forward implements Upstream.
func (s StaticLicenses) Forward(ctx context.Context, payload json.RawMessage) (*Response, error) {
	variant := s.Variant
	if variant == "" {
		variant = "Pro Plan"
	}
	return encodeResponse(gateway.LicenseResponse{
		Valid: true,
		Meta:  gateway.LicenseMeta{VariantName: variant},
	})
}

// LicenseDirectory validates a license against a license database.
type LicenseDirectory interface {
	ValidateLicense(ctx context.Context, req gateway.LicenseRequest) (*gateway.LicenseResponse, error)
}

// DirectoryLicenses answers license requests from a LicenseDirectory.
type DirectoryLicenses struct {
	Directory LicenseDirectory
}

// Forward implements Upstream.
func (d DirectoryLicenses) Forward(ctx context.Context, payload json.RawMessage) (*Response, error) {
	var req gateway.LicenseRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if req.LicenseKey == "" {
		return nil, fmt.Errorf("%w: license_key is required", ErrInvalidPayload)
	}

	resp, err := d.Directory.ValidateLicense(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("validate license: %w", err)
	}
	return encodeResponse(resp)
}

func encodeResponse(v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return &Response{Status: http.StatusOK, Body: body}, nil
}

// Compile-time checks
var (
	_ Upstream = (*HTTPUpstream)(nil)
	_ Upstream = (*CompletionUpstream)(nil)
	_ Upstream = StaticLicenses{}
	_ Upstream = DirectoryLicenses{}
)
