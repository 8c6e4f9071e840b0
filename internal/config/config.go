// Package config loads the relay and host configuration from the environment
// and the widget settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	assistant "github.com/creastat/assistant"
	"github.com/creastat/assistant/plan"
	"github.com/creastat/assistant/session"
	"github.com/creastat/assistant/widget"
)

// LicenseMode selects how the relay answers license requests.
type LicenseMode string

const (
	LicenseStatic   LicenseMode = "static"
	LicenseHTTP     LicenseMode = "http"
	LicenseSupabase LicenseMode = "supabase"
)

// Relay is the configuration of cmd/assistant-relay.
type Relay struct {
	Addr          string
	Debug         bool
	TraceEndpoint string

	CompletionURL   string
	CompletionKey   string
	DefaultModel    string
	PlanModels      map[plan.ID]string
	UpstreamTimeout time.Duration

	LicenseMode    LicenseMode
	LicenseVariant string // static mode
	LicenseURL     string // http mode
	LicenseKey     string // http mode

	SupabaseURL     string
	SupabaseKey     string
	SupabaseTable   string
	LicenseCacheTTL time.Duration
}

// Host is the configuration of cmd/assistant-chat.
type Host struct {
	RelayURL     string
	SettingsPath string

	Store    session.StoreType
	StateDir string
	RedisURL string
	StateTTL time.Duration

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	KnowledgeSources []string
	KnowledgeLimit   int

	EmbedURL   string
	EmbedKey   string
	EmbedModel string

	TTSCommand      string
	HistoryMessages int
	HistoryTokens   int
	TraceEndpoint   string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid(key, err)
	}
	return n, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, invalid(key, err)
	}
	return d, nil
}

func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func invalid(key string, err error) error {
	return &assistant.ConfigurationError{Field: key, Message: err.Error()}
}

// LoadRelay reads the relay configuration.
func LoadRelay() (*Relay, error) {
	cfg := &Relay{
		Addr:          getEnv("ASSISTANT_RELAY_ADDR", ":"+getEnv("PORT", "8080")),
		Debug:         getBoolEnv("ASSISTANT_DEBUG", false),
		TraceEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		CompletionURL: getEnv("ASSISTANT_COMPLETION_URL", "https://api.openai.com/v1/chat/completions"),
		CompletionKey: getEnv("OPENAI_API_KEY", ""),
		DefaultModel:  getEnv("ASSISTANT_COMPLETION_MODEL", "gpt-4o-mini"),

		LicenseMode:    LicenseMode(getEnv("ASSISTANT_LICENSE_MODE", string(LicenseStatic))),
		LicenseVariant: getEnv("ASSISTANT_LICENSE_VARIANT", "Pro Plan"),
		LicenseURL:     getEnv("ASSISTANT_LICENSE_URL", ""),
		LicenseKey:     getEnv("ASSISTANT_LICENSE_API_KEY", ""),

		SupabaseURL:   getEnv("SUPABASE_URL", ""),
		SupabaseKey:   getEnv("SUPABASE_KEY", ""),
		SupabaseTable: getEnv("ASSISTANT_LICENSE_TABLE", "licenses"),
	}

	var err error
	if cfg.UpstreamTimeout, err = getDurationEnv("ASSISTANT_UPSTREAM_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.LicenseCacheTTL, err = getDurationEnv("ASSISTANT_LICENSE_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PlanModels, err = parsePlanModels(os.Getenv("ASSISTANT_PLAN_MODELS")); err != nil {
		return nil, err
	}

	switch cfg.LicenseMode {
	case LicenseStatic:
	case LicenseHTTP:
		if cfg.LicenseURL == "" {
			return nil, invalid("ASSISTANT_LICENSE_URL", fmt.Errorf("required in %s mode", cfg.LicenseMode))
		}
	case LicenseSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, invalid("SUPABASE_URL", fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required in %s mode", cfg.LicenseMode))
		}
	default:
		return nil, invalid("ASSISTANT_LICENSE_MODE", fmt.Errorf("unknown mode %q", cfg.LicenseMode))
	}

	return cfg, nil
}

// parsePlanModels parses "pro=gpt-4o,business=gpt-4o".
func parsePlanModels(s string) (map[plan.ID]string, error) {
	out := make(map[plan.ID]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, model, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(model) == "" {
			return nil, invalid("ASSISTANT_PLAN_MODELS", fmt.Errorf("malformed entry %q", pair))
		}
		p := plan.Normalize(id)
		if !p.Known() {
			return nil, invalid("ASSISTANT_PLAN_MODELS", fmt.Errorf("%w: %s", plan.ErrUnknownPlan, id))
		}
		out[p] = strings.TrimSpace(model)
	}
	return out, nil
}

// LoadHost reads the chat host configuration.
func LoadHost() (*Host, error) {
	cfg := &Host{
		RelayURL:     getEnv("ASSISTANT_RELAY_URL", "http://localhost:8080/"),
		SettingsPath: getEnv("ASSISTANT_SETTINGS", ""),

		Store:    session.StoreType(getEnv("ASSISTANT_STORE", string(session.StoreTypeFile))),
		StateDir: getEnv("ASSISTANT_STATE_DIR", ".assistant-state"),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		QdrantURL:        getEnv("QDRANT_URL", ""),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "knowledge"),
		KnowledgeSources: getListEnv("ASSISTANT_KNOWLEDGE_SOURCES"),

		EmbedURL:   getEnv("ASSISTANT_EMBED_URL", ""),
		EmbedKey:   getEnv("ASSISTANT_EMBED_API_KEY", ""),
		EmbedModel: getEnv("ASSISTANT_EMBED_MODEL", "text-embedding-3-small"),

		TTSCommand:    getEnv("ASSISTANT_TTS_COMMAND", ""),
		TraceEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	var err error
	if cfg.StateTTL, err = getDurationEnv("ASSISTANT_STATE_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.KnowledgeLimit, err = getIntEnv("ASSISTANT_KNOWLEDGE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.HistoryMessages, err = getIntEnv("ASSISTANT_HISTORY_MESSAGES", 0); err != nil {
		return nil, err
	}
	if cfg.HistoryTokens, err = getIntEnv("ASSISTANT_HISTORY_TOKENS", 0); err != nil {
		return nil, err
	}

	switch cfg.Store {
	case session.StoreTypeMemory, session.StoreTypeFile, session.StoreTypeRedis:
	default:
		return nil, invalid("ASSISTANT_STORE", fmt.Errorf("%w: %s", assistant.ErrInvalidStoreType, cfg.Store))
	}

	return cfg, nil
}

// LoadSettings reads widget settings from a YAML file. An empty path yields
// zero settings.
func LoadSettings(path string) (widget.Settings, error) {
	var s widget.Settings
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: parse settings %s: %v", assistant.ErrInvalidConfig, path, err)
	}
	return s, nil
}
