package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/creastat/assistant/gateway"
	"github.com/creastat/assistant/internal/config"
	"github.com/creastat/assistant/internal/httpclient"
	"github.com/creastat/assistant/internal/observability"
	"github.com/creastat/assistant/relay"
	"github.com/creastat/assistant/supabase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadRelay()
	if err != nil {
		observability.Logger().Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.Debug)
	slog.SetDefault(logger)

	shutdownTracing, err := observability.InitTracing(context.Background(), "assistant-relay", cfg.TraceEndpoint)
	if err != nil {
		logger.Error("tracing", "error", err)
		os.Exit(1)
	}

	client := httpclient.New(httpclient.WithTimeout(cfg.UpstreamTimeout))

	licenses, err := licenseUpstream(cfg, client, logger)
	if err != nil {
		logger.Error("license upstream", "error", err)
		os.Exit(1)
	}

	completions := &relay.CompletionUpstream{
		HTTP:         relay.NewHTTPUpstream(cfg.CompletionURL, cfg.CompletionKey, client),
		DefaultModel: cfg.DefaultModel,
		Models:       cfg.PlanModels,
	}

	handler := relay.NewHandler(relay.Config{
		Upstreams: map[gateway.Target]relay.Upstream{
			gateway.TargetLicense:    licenses,
			gateway.TargetCompletion: completions,
		},
		Logger: logger,
	})
	if cfg.CompletionKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; completion requests will fail")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("relay listening", "addr", cfg.Addr, "license_mode", cfg.LicenseMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("flush traces", "error", err)
	}
}

func licenseUpstream(cfg *config.Relay, client *http.Client, logger *slog.Logger) (relay.Upstream, error) {
	switch cfg.LicenseMode {
	case config.LicenseHTTP:
		logger.Info("license validation over http", "url", cfg.LicenseURL)
		return relay.NewHTTPUpstream(cfg.LicenseURL, cfg.LicenseKey, client), nil

	case config.LicenseSupabase:
		logger.Info("license validation against supabase", "table", cfg.SupabaseTable)
		dir, err := supabase.New(supabase.Config{
			URL:      cfg.SupabaseURL,
			APIKey:   cfg.SupabaseKey,
			Table:    cfg.SupabaseTable,
			CacheTTL: cfg.LicenseCacheTTL,
		})
		if err != nil {
			return nil, err
		}
		return relay.DirectoryLicenses{Directory: dir}, nil

	default:
		logger.Warn("development mode: every license is accepted", "variant", cfg.LicenseVariant)
		return relay.StaticLicenses{Variant: cfg.LicenseVariant}, nil
	}
}
