package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	assistant "github.com/creastat/assistant"
	"github.com/creastat/assistant/gateway"
	"github.com/creastat/assistant/internal/config"
	"github.com/creastat/assistant/internal/observability"
	"github.com/creastat/assistant/knowledge"
	"github.com/creastat/assistant/session"
	"github.com/creastat/assistant/speech"
	"github.com/creastat/assistant/vectorstore"
	"github.com/creastat/assistant/vectorstore/qdrant"
	"github.com/creastat/assistant/widget"
)

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadHost()
	if err != nil {
		return err
	}

	settingsPath := flag.String("settings", cfg.SettingsPath, "widget settings YAML file")
	key := flag.String("key", "", "license key (overrides settings)")
	origin := flag.String("origin", "", "origin the license is validated for (overrides settings)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		return err
	}
	if *key != "" {
		settings.Key = *key
	}
	if *origin != "" {
		settings.Origin = *origin
	}
	if settings.Origin == "" {
		settings.Origin = "localhost"
	}
	settings.Debug = settings.Debug || *debug

	logger := observability.NewLogger(os.Stderr, settings.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, "assistant-chat", cfg.TraceEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	gw, err := gateway.New(gateway.Config{Endpoint: cfg.RelayURL, Logger: logger})
	if err != nil {
		return err
	}

	store, err := openStore(cfg, settings.Origin, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []widget.Option{
		widget.WithLogger(logger),
		widget.WithReporter(consoleReporter{out: os.Stdout}),
		widget.WithHistoryWindow(cfg.HistoryMessages, cfg.HistoryTokens),
	}

	if cfg.QdrantURL != "" {
		vs, err := qdrant.New(qdrant.Config{
			URL:            cfg.QdrantURL,
			CollectionName: cfg.QdrantCollection,
			APIKey:         cfg.QdrantAPIKey,
		})
		if err != nil {
			return err
		}
		defer vs.Close()

		opts = append(opts, widget.WithKnowledge(vectorKnowledge(cfg, vs)))
	}

	if cfg.TTSCommand != "" {
		fields := strings.Fields(cfg.TTSCommand)
		playback, err := speech.NewCommandPlayback(fields[0], fields[1:]...)
		if err != nil {
			logger.Warn("speech playback disabled", "error", err)
		} else {
			opts = append(opts, widget.WithPlayback(playback))
		}
	}

	w := widget.New(settings, gw, store, opts...)
	if err := w.Init(ctx); err != nil {
		return err
	}

	return chat(ctx, w, os.Stdin, os.Stdout)
}

// vectorKnowledge searches by similarity when an embeddings endpoint is
// configured and otherwise fetches the configured sources' chunks.
func vectorKnowledge(cfg *config.Host, vs vectorstore.VectorStore) *knowledge.VectorSource {
	src := &knowledge.VectorSource{
		Store:  vs,
		Filter: vectorstore.SearchFilter{SourceIDs: cfg.KnowledgeSources},
		Limit:  cfg.KnowledgeLimit,
	}
	if cfg.EmbedURL != "" {
		src.Embed = knowledge.HTTPEmbedder(cfg.EmbedURL, cfg.EmbedKey, cfg.EmbedModel, nil)
	}
	return src
}

func openStore(cfg *config.Host, scope string, logger *slog.Logger) (session.Store, error) {
	opts := []session.StoreOption{
		session.WithScope(scope),
		session.WithLogger(logger),
	}

	switch cfg.Store {
	case session.StoreTypeFile:
		opts = append(opts, session.WithDirectory(cfg.StateDir))
	case session.StoreTypeRedis:
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = append(opts,
			session.WithRedisClient(redis.NewClient(redisOpts)),
			session.WithRedisTTL(cfg.StateTTL),
		)
	}

	return session.NewStore(cfg.Store, opts...)
}

// chat reads one message per line until EOF, /quit or a locked session.
func chat(ctx context.Context, w *widget.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Type a message, /voice, /usage or /quit.")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/usage":
			fmt.Fprintln(out, w.UsageSummary())
			continue
		case "/voice":
			if err := w.ToggleVoice(ctx); errors.Is(err, assistant.ErrUnsupportedCapability) {
				fmt.Fprintln(out, "Voice input is not available here; type your message instead.")
			}
		default:
			_ = w.SendText(ctx, line)
		}

		if w.State() == widget.StateLocked {
			return nil
		}
	}
	return scanner.Err()
}

// consoleReporter prints notices the way the widget's message area shows them.
type consoleReporter struct {
	out io.Writer
}

func (r consoleReporter) Report(n widget.Notice) {
	switch n.Kind {
	case widget.NoticeReply:
		fmt.Fprintf(r.out, "assistant> %s\n", n.Text)
	case widget.NoticeUsage:
		fmt.Fprintf(r.out, "[%s]\n", n.Text)
	default:
		fmt.Fprintf(r.out, "! %s\n", n.Text)
	}
}
