package supabase

import (
	"strings"
	"time"

	"github.com/creastat/assistant/gateway"
	"github.com/creastat/assistant/license"
)

// Rejection reasons returned to the widget.
const (
	ReasonNotFound = "License key not found."
	ReasonInactive = "License is not active."
	ReasonExpired  = "License has expired."
)

// Validate answers a license request from a license row. A nil row is unknown.
func Validate(l *License, origin string, now time.Time) *gateway.LicenseResponse {
	switch {
	case l == nil:
		return rejected(ReasonNotFound)
	case !l.IsActive:
		return rejected(ReasonInactive)
	case l.ExpiresAt != nil && !now.Before(*l.ExpiresAt):
		return rejected(ReasonExpired)
	case !originAllowed(l.AllowedOrigins, origin):
		return rejected(license.ReasonInvalid)
	}

	return &gateway.LicenseResponse{
		Valid: true,
		Meta:  gateway.LicenseMeta{VariantName: l.VariantName},
	}
}

func rejected(reason string) *gateway.LicenseResponse {
	return &gateway.LicenseResponse{Valid: false, Error: reason}
}

// originAllowed matches origin against the allow list. An empty list allows
// every origin. Entries may be "*", an exact host or "*.domain" for subdomains.
func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 {
		return true
	}

	host := normalizeHost(origin)
	for _, a := range allowed {
		a = normalizeHost(a)
		switch {
		case a == "*":
			return true
		case a == host:
			return true
		case strings.HasPrefix(a, "*.") && strings.HasSuffix(host, a[1:]):
			return true
		}
	}
	return false
}

func normalizeHost(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimSuffix(s, "/")
}
