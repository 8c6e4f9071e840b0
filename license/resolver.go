// Package license validates a license key for an origin and resolves its plan.
package license

import (
	"context"
	"encoding/json"
	"log/slog"

	assistant "github.com/creastat/assistant"
	"github.com/creastat/assistant/gateway"
	"github.com/creastat/assistant/internal/observability"
	"github.com/creastat/assistant/plan"
)

// User-facing reasons.
const (
	ReasonInvalid     = "Invalid license for this domain."
	ReasonUnreachable = "Cannot connect to the license server. Please check your connection or API proxy."
)

// License is a validated license. It is never persisted.
type License struct {
	Key            string
	Plan           plan.ID
	Variant        string
	ValidForOrigin bool
}

// Resolver validates licenses through the relay.
type Resolver struct {
	gw     gateway.Caller
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger uses the package logger.
func NewResolver(gw gateway.Caller, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = observability.Logger()
	}
	return &Resolver{gw: gw, logger: logger}
}

// Resolve validates key for origin. Failures are *assistant.LicenseError:
// LicenseInvalid when the server rejects the pair, LicenseUnreachable when the
// call itself fails or the answer cannot be read.
func (r *Resolver) Resolve(ctx context.Context, key, origin string) (*License, error) {
	log := observability.FromContext(ctx, r.logger).With("origin", origin)

	raw, err := r.gw.Call(ctx, gateway.TargetLicense, gateway.LicenseRequest{
		LicenseKey:   key,
		InstanceName: origin,
	})
	if err != nil {
		log.Debug("license validation error", "error", err)
		return nil, &assistant.LicenseError{Kind: assistant.LicenseUnreachable, Reason: ReasonUnreachable, Err: err}
	}

	var resp gateway.LicenseResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Debug("license response unreadable", "error", err)
		return nil, &assistant.LicenseError{Kind: assistant.LicenseUnreachable, Reason: ReasonUnreachable, Err: err}
	}

	if !resp.Valid {
		reason := resp.Error
		if reason == "" {
			reason = ReasonInvalid
		}
		log.Debug("license validation failed", "reason", reason)
		return nil, &assistant.LicenseError{Kind: assistant.LicenseInvalid, Reason: reason}
	}

	lic := &License{
		Key:            key,
		Plan:           plan.Normalize(resp.Meta.VariantName),
		Variant:        resp.Meta.VariantName,
		ValidForOrigin: true,
	}
	log.Debug("license valid", "plan", lic.Plan)
	return lic, nil
}
