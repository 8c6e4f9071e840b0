package supabase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/supabase-go"

	assistant "github.com/creastat/assistant"
	"github.com/creastat/assistant/gateway"
)

const defaultTable = "licenses"

// ErrLicenseNotFound is returned by GetLicense for unknown keys.
var ErrLicenseNotFound = fmt.Errorf("license %w", assistant.ErrNotFound)

// Config holds Supabase connection configuration
type Config struct {
	URL      string
	APIKey   string
	Table    string        // Default: licenses
	CacheTTL time.Duration // Default: 5 minutes
}

// Client implements the Directory interface using Supabase
type Client struct {
	client   *supabase.Client
	table    string
	cache    *cache
	cacheTTL time.Duration
	now      func() time.Time
}

// cache provides thread-safe caching of license rows by key
type cache struct {
	mu    sync.RWMutex
	byKey map[string]*cacheEntry[*License]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func newCache() *cache {
	return &cache{byKey: make(map[string]*cacheEntry[*License])}
}

// New creates a new Supabase client
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Table == "" {
		cfg.Table = defaultTable
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		client:   client,
		table:    cfg.Table,
		cacheTTL: cfg.CacheTTL,
		cache:    newCache(),
		now:      time.Now,
	}, nil
}

// GetLicense retrieves a license by its key
func (c *Client) GetLicense(ctx context.Context, key string) (*License, error) {
	// Check cache first
	if cached := c.getFromCache(key); cached != nil {
		return cached, nil
	}

	var licenses []License
	_, err := c.client.From(c.table).
		Select("*", "", false).
		Eq("license_key", key).
		ExecuteTo(&licenses)

	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	if len(licenses) == 0 {
		return nil, ErrLicenseNotFound
	}

	license := &licenses[0]
	c.addToCache(key, license)

	return license, nil
}

// ValidateLicense implements relay.LicenseDirectory. Unknown keys are an
// invalid answer, not an error; only lookup failures are returned as errors.
func (c *Client) ValidateLicense(ctx context.Context, req gateway.LicenseRequest) (*gateway.LicenseResponse, error) {
	license, err := c.GetLicense(ctx, req.LicenseKey)
	if err != nil && !errors.Is(err, ErrLicenseNotFound) {
		return nil, err
	}
	return Validate(license, req.InstanceName, c.now()), nil
}

// Close closes the Supabase client
func (c *Client) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

// getFromCache retrieves a license from cache by key
func (c *Client) getFromCache(key string) *License {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()

	if e, ok := c.cache.byKey[key]; ok {
		if c.now().Before(e.expiresAt) {
			return e.value
		}
	}
	return nil
}

// addToCache adds a license to cache
func (c *Client) addToCache(key string, license *License) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.byKey[key] = &cacheEntry[*License]{
		value:     license,
		expiresAt: c.now().Add(c.cacheTTL),
	}
}

// Compile-time check that Client implements Directory
var _ Directory = (*Client)(nil)
