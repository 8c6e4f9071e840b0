package supabase

import (
	"context"
	"time"

	"github.com/creastat/assistant/gateway"
)

// Directory provides license lookups for the relay.
type Directory interface {
	// GetLicense retrieves a license row by its key.
	GetLicense(ctx context.Context, key string) (*License, error)

	// ValidateLicense checks a license key for an origin and answers in the
	// license server's wire format.
	ValidateLicense(ctx context.Context, req gateway.LicenseRequest) (*gateway.LicenseResponse, error)

	// Close closes the Supabase client and releases resources
	Close() error
}

// License represents a purchased license from the database
type License struct {
	ID             string     `json:"id"`
	LicenseKey     string     `json:"license_key"`
	VariantName    string     `json:"variant_name"`
	AllowedOrigins []string   `json:"allowed_origins"`
	IsActive       bool       `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
