// Package widget is the session orchestrator of the assistant widget. A Session
// validates the license, enforces the plan's quota before every turn, relays
// turns to the completion API and persists usage and conversation per license key.
package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	assistant "github.com/creastat/assistant"
	"github.com/creastat/assistant/conversation"
	"github.com/creastat/assistant/gateway"
	"github.com/creastat/assistant/internal/observability"
	"github.com/creastat/assistant/knowledge"
	"github.com/creastat/assistant/license"
	"github.com/creastat/assistant/plan"
	"github.com/creastat/assistant/session"
	"github.com/creastat/assistant/speech"
	"github.com/creastat/assistant/usage"
)

// DefaultPersonality is the system prompt used when Settings.Personality is empty.
const DefaultPersonality = "You are a helpful assistant."

const knowledgePreamble = "\n\nUse this information: "

// Errors returned by Session methods in addition to the assistant taxonomy.
var (
	ErrNotInitialized     = errors.New("session not initialized")
	ErrAlreadyInitialized = errors.New("session already initialized")
	ErrEmptyMessage       = errors.New("empty message")
)

// Session is one widget instance bound to a license key. It is safe for use
// from the host goroutine and from speech callbacks.
type Session struct {
	id       string
	settings Settings
	gw       gateway.Caller
	store    session.Store
	resolver *license.Resolver

	capture        speech.Capture
	playback       speech.Playback
	reporter       Reporter
	knowledge      knowledge.Source
	extraKnowledge knowledge.Source
	now            func() time.Time
	logger         *slog.Logger

	historyMessages int
	historyTokens   int

	mu         sync.Mutex
	state      State
	lockReason LockReason
	starting   bool
	license    *license.License
	plan       plan.ID
	meter      *usage.Meter
	log        *conversation.Log
	turnCtx    context.Context
}

// New creates a session. A nil store keeps state in memory for the life of the process.
func New(settings Settings, gw gateway.Caller, store session.Store, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		settings: settings.WithDefaults(),
		gw:       gw,
		store:    store,
		reporter: discardReporter{},
		now:      time.Now,
		log:      conversation.NewLog(nil),
		turnCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		if s.settings.Debug {
			s.logger = observability.NewLogger(os.Stdout, true)
		} else {
			s.logger = observability.Logger()
		}
	}
	s.logger = s.logger.With("session_id", s.id)

	if s.store == nil {
		// memory store construction cannot fail
		s.store, _ = session.NewStore(session.StoreTypeMemory, session.WithLogger(s.logger))
	}

	var sources knowledge.Multi
	if strings.TrimSpace(s.settings.Knowledge) != "" {
		sources = append(sources, knowledge.Static(s.settings.Knowledge))
	}
	if s.extraKnowledge != nil {
		sources = append(sources, s.extraKnowledge)
	}
	if len(sources) > 0 {
		s.knowledge = sources
	}

	s.resolver = license.NewResolver(gw, s.logger)

	if s.capture != nil {
		s.capture.Subscribe(captureListener{s})
	}
	if s.playback != nil {
		s.playback.Subscribe(playbackListener{s})
	}
	return s
}

// ID returns the session id used in logs.
func (s *Session) ID() string {
	return s.id
}

// Settings returns the settings the session was created with, defaults applied.
func (s *Session) Settings() Settings {
	return s.settings
}

// Init validates the license, restores the persisted state for the key and
// moves the session to Ready. Failures lock the session and are reported.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized || s.starting {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.starting = true
	s.turnCtx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	log := observability.FromContext(ctx, s.logger)

	if strings.TrimSpace(s.settings.Key) == "" {
		s.lock(LockMissingKey)
		s.report(NoticeError, MsgMissingKey)
		return &assistant.ConfigurationError{Field: "key", Message: "license key is missing"}
	}

	lic, err := s.resolver.Resolve(ctx, s.settings.Key, s.settings.Origin)
	if err != nil {
		var licErr *assistant.LicenseError
		reason, text := LockLicenseUnreachable, license.ReasonUnreachable
		if errors.As(err, &licErr) {
			text = licErr.Reason
			if licErr.Kind == assistant.LicenseInvalid {
				reason = LockLicenseInvalid
			}
		}
		log.Info("license rejected", "reason", reason.String(), "error", err)
		s.lock(reason)
		s.report(NoticeError, text)
		return err
	}

	id, limits := plan.LimitsOrDefault(lic.Plan)
	if id != lic.Plan {
		log.Warn("unknown plan variant, using text limits", "variant", lic.Variant)
	}

	meter := usage.NewMeter(limits, usage.State{})
	turns := s.restore(ctx, meter)

	s.mu.Lock()
	s.license = lic
	s.plan = id
	s.meter = meter
	s.log.Replace(turns)
	s.state = StateReady
	s.starting = false
	s.mu.Unlock()

	log.Info("session ready",
		"plan", id.String(),
		"messages", meter.State().Messages,
		"voice_minutes", meter.State().VoiceMinutes,
		"call_routing", s.settings.CallRouting,
	)
	s.report(NoticeUsage, meter.Summary())
	return nil
}

// restore loads the snapshot for the key into meter and returns the conversation.
// Snapshots from an earlier billing period are discarded.
func (s *Session) restore(ctx context.Context, meter *usage.Meter) []conversation.Turn {
	snap, err := s.store.Load(ctx, s.settings.Key)
	if err != nil {
		s.logger.Debug("failed to load session state", "error", err)
		return nil
	}
	if snap == nil {
		return nil
	}
	if !usage.SamePeriod(snap.Timestamp, s.now()) {
		s.logger.Info("new billing period, usage reset", "saved_at", snap.Timestamp)
		return nil
	}
	meter.Restore(snap.Usage)
	return snap.Conversation
}

// SendText runs one text turn.
func (s *Session) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	notice, err := s.admitLocked(false)
	if err != nil {
		s.mu.Unlock()
		s.emit(notice)
		return err
	}
	s.state = StateAwaitingReply
	s.mu.Unlock()

	return s.exchange(ctx, text)
}

// ToggleVoice starts a voice turn, or stops the running capture. Plans without
// voice minutes and hosts without speech capture get ErrUnsupportedCapability
// and should fall back to SendText.
func (s *Session) ToggleVoice(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateListening {
		s.mu.Unlock()
		return s.capture.Stop()
	}

	notice, err := s.admitLocked(true)
	if err != nil {
		s.mu.Unlock()
		s.emit(notice)
		return err
	}
	if !s.plan.VoiceCapable() {
		s.mu.Unlock()
		return fmt.Errorf("%w: plan %s has no voice minutes", assistant.ErrUnsupportedCapability, s.plan)
	}
	if s.capture == nil {
		s.mu.Unlock()
		s.report(NoticeError, MsgVoiceUnsupported)
		return fmt.Errorf("%w: speech capture", assistant.ErrUnsupportedCapability)
	}
	s.state = StateListening
	s.turnCtx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	if err := s.capture.Start(ctx); err != nil {
		s.transition(StateListening, StateReady)
		s.report(NoticeError, fmt.Sprintf("Voice error: %v", err))
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

// admitLocked checks state and quota for a new turn. Quota failures lock the
// session and return the notice to emit once the mutex is released.
func (s *Session) admitLocked(voice bool) (*Notice, error) {
	switch s.state {
	case StateReady:
	case StateLocked:
		return nil, fmt.Errorf("%w: %s", assistant.ErrLocked, s.lockReason)
	case StateUninitialized:
		return nil, ErrNotInitialized
	default:
		return nil, assistant.ErrTurnInProgress
	}

	if err := s.meter.AdmitMessage(); err != nil {
		s.lockLocked(LockMessageQuotaExceeded)
		return &Notice{Kind: NoticeError, Text: MsgMessageLimit}, err
	}
	if voice && s.plan.VoiceCapable() {
		if err := s.meter.AdmitVoice(); err != nil {
			s.lockLocked(LockVoiceQuotaExceeded)
			return &Notice{Kind: NoticeError, Text: MsgVoiceLimit}, err
		}
	}
	return nil, nil
}

// exchange runs an admitted turn. The session must be in AwaitingReply.
func (s *Session) exchange(ctx context.Context, text string) error {
	log := observability.FromContext(ctx, s.logger)

	s.log.Append(conversation.RoleUser, text)
	s.meter.RecordMessage()

	req := gateway.CompletionRequest{
		Messages: s.outgoing(ctx, text),
		Plan:     s.plan,
	}
	reply, err := s.complete(ctx, req)
	if err != nil {
		log.Warn("completion failed", "error", err)
		s.transition(StateAwaitingReply, StateReady)
		s.report(NoticeError, MsgCompletionFailed)
		return err
	}

	s.log.Append(conversation.RoleAssistant, reply)
	s.persist(ctx)
	s.report(NoticeReply, reply)
	s.report(NoticeUsage, s.meter.Summary())

	if !s.plan.VoiceCapable() || s.playback == nil {
		s.transition(StateAwaitingReply, StateReady)
		return nil
	}

	if !s.transition(StateAwaitingReply, StateSpeaking) {
		return nil
	}
	if err := s.playback.Start(ctx, speech.Utterance{Text: reply, Voice: s.settings.Voice}); err != nil {
		log.Warn("playback failed", "error", err)
		s.transition(StateSpeaking, StateReady)
	}
	return nil
}

func (s *Session) complete(ctx context.Context, req gateway.CompletionRequest) (string, error) {
	raw, err := s.gw.Call(ctx, gateway.TargetCompletion, req)
	if err != nil {
		return "", err
	}

	var resp gateway.CompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &assistant.GatewayError{Target: string(gateway.TargetCompletion), Message: "malformed completion", Err: err}
	}
	reply, err := resp.FirstContent()
	if err != nil {
		return "", &assistant.GatewayError{Target: string(gateway.TargetCompletion), Message: err.Error(), Err: err}
	}
	return reply, nil
}

// outgoing builds the message list: the system prompt followed by the
// conversation window, which already ends with the user's turn.
func (s *Session) outgoing(ctx context.Context, query string) []conversation.Turn {
	window := s.log.Window(s.historyTokens, s.historyMessages)

	out := make([]conversation.Turn, 0, len(window)+1)
	out = append(out, conversation.Turn{Role: conversation.RoleSystem, Content: s.systemPrompt(ctx, query)})
	return append(out, window...)
}

func (s *Session) systemPrompt(ctx context.Context, query string) string {
	prompt := strings.TrimSpace(s.settings.Personality)
	if prompt == "" {
		prompt = DefaultPersonality
	}
	if s.knowledge == nil {
		return prompt
	}

	text, err := s.knowledge.Knowledge(ctx, query)
	if err != nil {
		s.logger.Warn("knowledge lookup failed", "error", err)
	}
	if text = strings.TrimSpace(text); text != "" {
		prompt += knowledgePreamble + text
	}
	return prompt
}

// persist saves a snapshot. Failures are logged and otherwise ignored.
func (s *Session) persist(ctx context.Context) {
	snap := &session.Snapshot{
		Usage:        s.meter.State(),
		Conversation: s.log.Turns(),
		Timestamp:    s.now(),
	}
	if err := s.store.Save(ctx, s.settings.Key, snap); err != nil {
		s.logger.Debug("failed to save session state", "error", err)
	}
}

// transition moves from one state to another and reports whether it happened.
func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != from {
		return false
	}
	s.state = to
	return true
}

func (s *Session) lock(reason LockReason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lockLocked(reason)
}

func (s *Session) lockLocked(reason LockReason) {
	s.state = StateLocked
	s.lockReason = reason
	s.starting = false
	s.logger.Info("session locked", "reason", reason.String())
}

func (s *Session) report(kind NoticeKind, text string) {
	s.reporter.Report(Notice{Kind: kind, Text: text})
}

func (s *Session) emit(n *Notice) {
	if n != nil {
		s.reporter.Report(*n)
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// LockReason returns why the session is locked, or LockNone.
func (s *Session) LockReason() LockReason {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lockReason
}

// Plan returns the resolved plan. Empty before Init succeeds.
func (s *Session) Plan() plan.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.plan
}

// License returns the validated license, or nil.
func (s *Session) License() *license.License {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.license == nil {
		return nil
	}
	lic := *s.license
	return &lic
}

// Usage returns the consumption for the current period.
func (s *Session) Usage() usage.State {
	if m := s.currentMeter(); m != nil {
		return m.State()
	}
	return usage.State{}
}

// Conversation returns a copy of the conversation log.
func (s *Session) Conversation() []conversation.Turn {
	return s.log.Turns()
}

// Remaining returns the messages and whole voice minutes left this period.
func (s *Session) Remaining() (messages int, minutes int) {
	if m := s.currentMeter(); m != nil {
		return m.Remaining()
	}
	return 0, 0
}

// UsageSummary renders Remaining for display.
func (s *Session) UsageSummary() string {
	if m := s.currentMeter(); m != nil {
		return m.Summary()
	}
	return ""
}

func (s *Session) currentMeter() *usage.Meter {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.meter
}
