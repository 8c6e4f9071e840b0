// Package relay is the server side of the widget's gateway: a single POST
// endpoint that routes {targetApi, payload} envelopes to upstream APIs while
// keeping their credentials on the server.
package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/creastat/assistant/gateway"
	"github.com/creastat/assistant/internal/observability"
)

const defaultMaxBodyBytes = 1 << 20

// Error bodies.
const (
	msgMethodNotAllowed  = "Method Not Allowed"
	msgInvalidJSON       = "Invalid JSON body"
	msgMissingFields     = "Missing targetApi or payload"
	msgInvalidTarget     = "Invalid API target"
	msgInternal          = "An internal server error occurred."
	msgMalformedUpstream = "Upstream returned a malformed response"
)

// legacyTargets maps the target names older widget builds send.
var legacyTargets = map[gateway.Target]gateway.Target{
	"lemonsqueezy": gateway.TargetLicense,
	"openai":       gateway.TargetCompletion,
}

// Config wires the relay.
type Config struct {
	// Upstreams maps each target to its upstream. A missing entry is reported
	// as an unconfigured credential.
	Upstreams map[gateway.Target]Upstream

	Logger       *slog.Logger
	MaxBodyBytes int64
}

type handler struct {
	upstreams map[gateway.Target]Upstream
	logger    *slog.Logger
	tracer    trace.Tracer
	maxBody   int64
}

// NewHandler builds the relay HTTP handler with request id, logging and CORS middleware.
func NewHandler(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = observability.Logger()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	h := &handler{
		upstreams: cfg.Upstreams,
		logger:    cfg.Logger,
		tracer:    observability.Tracer(),
		maxBody:   cfg.MaxBodyBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/", h.handleRelay)

	return chainMiddlewares(mux, withCORS, withLogging(cfg.Logger), withRequestID)
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleRelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	var req gateway.RelayRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&req); err != nil {
		badRequest(w, msgInvalidJSON)
		return
	}
	if req.TargetAPI == "" || !isObject(req.Payload) {
		badRequest(w, msgMissingFields)
		return
	}

	target := req.TargetAPI
	if alias, ok := legacyTargets[target]; ok {
		target = alias
	}
	if !target.Valid() {
		badRequest(w, msgInvalidTarget)
		return
	}

	up, ok := h.upstreams[target]
	if !ok || up == nil {
		writeError(w, http.StatusInternalServerError, notConfigured(req.TargetAPI))
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "relay.forward", trace.WithAttributes(
		attribute.String("relay.target", string(target)),
	))
	defer span.End()

	log := observability.FromContext(ctx, h.logger).With("target", target)

	resp, err := up.Forward(ctx, req.Payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		switch {
		case errors.Is(err, ErrNotConfigured):
			log.Error("upstream credential missing")
			writeError(w, http.StatusInternalServerError, notConfigured(req.TargetAPI))
		case errors.Is(err, ErrInvalidPayload):
			log.Debug("payload rejected", "error", err)
			badRequest(w, fmt.Sprintf("Invalid payload for %s", req.TargetAPI))
		case errors.Is(err, ErrMalformedUpstream):
			log.Warn("upstream returned malformed body", "error", err)
			writeError(w, http.StatusBadGateway, msgMalformedUpstream)
		default:
			log.Error("upstream call failed", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.Status))
	log.Debug("forwarded", "status", resp.Status, "bytes", len(resp.Body))
	writeRaw(w, resp.Status, resp.Body)
}

// isObject reports whether p is a JSON object. Upstream payloads are always
// objects; scalars, arrays and null are rejected as missing.
func isObject(p json.RawMessage) bool {
	p = bytes.TrimSpace(p)
	return len(p) > 0 && p[0] == '{'
}

func notConfigured(target gateway.Target) string {
	return fmt.Sprintf("API key for %s is not configured.", target)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, gateway.ErrorBody{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}
