package supabase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	assistant "github.com/creastat/assistant"
)

var now = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func TestValidate(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	active := func(mut func(*License)) *License {
		l := &License{LicenseKey: "k", VariantName: "Business Plan", IsActive: true}
		if mut != nil {
			mut(l)
		}
		return l
	}

	tests := []struct {
		name    string
		license *License
		origin  string
		valid   bool
		reason  string
	}{
		{"unknown", nil, "shop.example.com", false, ReasonNotFound},
		{"inactive", active(func(l *License) { l.IsActive = false }), "shop.example.com", false, ReasonInactive},
		{"expired", active(func(l *License) { l.ExpiresAt = &past }), "shop.example.com", false, ReasonExpired},
		{"not yet expired", active(func(l *License) { l.ExpiresAt = &future }), "shop.example.com", true, ""},
		{"any origin", active(nil), "anything.test", true, ""},
		{"origin listed", active(func(l *License) { l.AllowedOrigins = []string{"https://Shop.Example.com/"} }), "shop.example.com", true, ""},
		{"origin not listed", active(func(l *License) { l.AllowedOrigins = []string{"other.com"} }), "shop.example.com", false, "Invalid license for this domain."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Validate(tt.license, tt.origin, now)
			assert.Equal(t, tt.valid, resp.Valid)
			assert.Equal(t, tt.reason, resp.Error)
			if tt.valid {
				assert.Equal(t, "Business Plan", resp.Meta.VariantName)
			}
		})
	}
}

func TestOriginAllowedWildcards(t *testing.T) {
	assert.True(t, originAllowed([]string{"*"}, "a.b"))
	assert.True(t, originAllowed([]string{"*.example.com"}, "shop.example.com"))
	assert.False(t, originAllowed([]string{"*.example.com"}, "example.org"))
	assert.False(t, originAllowed([]string{"*.example.com"}, "badexample.com"))
}

func TestCacheExpiry(t *testing.T) {
	clock := now
	c := &Client{cache: newCache(), cacheTTL: time.Minute, now: func() time.Time { return clock }}

	c.addToCache("k", &License{LicenseKey: "k"})
	assert.NotNil(t, c.getFromCache("k"))

	clock = clock.Add(2 * time.Minute)
	assert.Nil(t, c.getFromCache("k"))
}

func TestLicenseNotFoundIsNotFound(t *testing.T) {
	assert.ErrorIs(t, ErrLicenseNotFound, assistant.ErrNotFound)
}
