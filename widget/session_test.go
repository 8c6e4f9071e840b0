package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

var testNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu         sync.Mutex
	variant    string
	rejection  string
	licenseErr error
	reply      string
	replyErr   error
	entered    chan struct{}
	release    chan struct{}
	calls      map[gateway.Target]int
	requests   []gateway.CompletionRequest
}

func newFakeGateway(variant string) *fakeGateway {
	return &fakeGateway{variant: variant, reply: "Hello there.", calls: map[gateway.Target]int{}}
}

func (f *fakeGateway) Call(ctx context.Context, target gateway.Target, payload any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls[target]++
	f.mu.Unlock()

	switch target {
	case gateway.TargetLicense:
		if f.licenseErr != nil {
			return nil, f.licenseErr
		}
		resp := gateway.LicenseResponse{Valid: f.rejection == "", Error: f.rejection}
		resp.Meta.VariantName = f.variant
		return json.Marshal(resp)
	case gateway.TargetCompletion:
		req := payload.(gateway.CompletionRequest)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		if f.entered != nil {
			f.entered <- struct{}{}
			<-f.release
		}
		if f.replyErr != nil {
			return nil, f.replyErr
		}
		return json.Marshal(gateway.CompletionResponse{Choices: []gateway.CompletionChoice{
			{Message: gateway.CompletionMessage{Role: "assistant", Content: f.reply}},
		}})
	}
	return nil, fmt.Errorf("unexpected target %q", target)
}

func (f *fakeGateway) count(target gateway.Target) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[target]
}

func (f *fakeGateway) lastRequest(t *testing.T) gateway.CompletionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type fakeCapture struct {
	listener speech.Listener
	starts   int
	stops    int
	startErr error
}

func (c *fakeCapture) Subscribe(l speech.Listener) { c.listener = l }

func (c *fakeCapture) Start(ctx context.Context) error {
	c.starts++
	return c.startErr
}

func (c *fakeCapture) Stop() error {
	c.stops++
	return nil
}

type fakePlayback struct {
	listener   speech.Listener
	utterances []speech.Utterance
}

func (p *fakePlayback) Subscribe(l speech.Listener) { p.listener = l }

func (p *fakePlayback) Start(ctx context.Context, u speech.Utterance) error {
	p.utterances = append(p.utterances, u)
	return nil
}

type failingStore struct {
	session.Store
	saves int
}

func (s *failingStore) Save(ctx context.Context, key string, snap *session.Snapshot) error {
	s.saves++
	return errors.New("disk full")
}

func newMemoryStore(t *testing.T) session.Store {
	t.Helper()
	store, err := session.NewStore(session.StoreTypeMemory)
	require.NoError(t, err)
	return store
}

func seed(t *testing.T, store session.Store, key string, snap *session.Snapshot) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), key, snap))
}

func newTestSession(t *testing.T, gw gateway.Caller, store session.Store, opts ...Option) (*Session, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	base := []Option{
		WithReporter(rec),
		WithClock(func() time.Time { return testNow }),
		WithLogger(observability.Discard()),
	}
	s := New(Settings{Key: "lic-1", Origin: "shop.example.com"}, gw, store, append(base, opts...)...)
	return s, rec
}

func lastNotice(t *testing.T, rec *Recorder, kind NoticeKind) string {
	t.Helper()
	notices := rec.Notices()
	for i := len(notices) - 1; i >= 0; i-- {
		if notices[i].Kind == kind {
			return notices[i].Text
		}
	}
	t.Fatalf("no %s notice in %v", kind, notices)
	return ""
}

func TestInitMissingKey(t *testing.T) {
	gw := newFakeGateway("Pro Plan")
	rec := &Recorder{}
	s := New(Settings{}, gw, newMemoryStore(t), WithReporter(rec), WithLogger(observability.Discard()))

	err := s.Init(context.Background())

	var cfgErr *assistant.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "key", cfgErr.Field)
	assert.Equal(t, StateLocked, s.State())
	assert.Equal(t, LockMissingKey, s.LockReason())
	assert.Equal(t, MsgMissingKey, lastNotice(t, rec, NoticeError))
	assert.Zero(t, gw.count(gateway.TargetLicense))
}

func TestInitInvalidLicense(t *testing.T) {
	gw := newFakeGateway("Text Plan")
	gw.rejection = license.ReasonInvalid
	s, rec := newTestSession(t, gw, newMemoryStore(t))

	err := s.Init(context.Background())

	var licErr *assistant.LicenseError
	require.ErrorAs(t, err, &licErr)
	assert.Equal(t, assistant.LicenseInvalid, licErr.Kind)
	assert.Equal(t, StateLocked, s.State())
	assert.Equal(t, LockLicenseInvalid, s.LockReason())
	assert.Equal(t, "Invalid license for this domain.", lastNotice(t, rec, NoticeError))

	err = s.SendText(context.Background(), "hello")
	assert.ErrorIs(t, err, assistant.ErrLocked)
	assert.Zero(t, gw.count(gateway.TargetCompletion))
}

func TestInitUnreachableLicenseServer(t *testing.T) {
	gw := newFakeGateway("Pro Plan")
	gw.licenseErr = &assistant.GatewayError{Target: "license", Message: "connection refused"}
	s, rec := newTestSession(t, gw, newMemoryStore(t))

	err := s.Init(context.Background())

	var licErr *assistant.LicenseError
	require.ErrorAs(t, err, &licErr)
	assert.Equal(t, assistant.LicenseUnreachable, licErr.Kind)
	assert.Equal(t, LockLicenseUnreachable, s.LockReason())
	assert.Equal(t, license.ReasonUnreachable, lastNotice(t, rec, NoticeError))
}

func TestInitTwice(t *testing.T) {
	s, _ := newTestSession(t, newFakeGateway("Pro Plan"), newMemoryStore(t))
	require.NoError(t, s.Init(context.Background()))
	assert.ErrorIs(t, s.Init(context.Background()), ErrAlreadyInitialized)
}

func TestTurnBeforeInit(t *testing.T) {
	s, _ := newTestSession(t, newFakeGateway("Pro Plan"), newMemoryStore(t))
	assert.ErrorIs(t, s.SendText(context.Background(), "hi"), ErrNotInitialized)
}

func TestInitRestoresSamePeriod(t *testing.T) {
	store := newMemoryStore(t)
	turns := []conversation.Turn{
		{Role: conversation.RoleUser, Content: "hi"},
		{Role: conversation.RoleAssistant, Content: "hello"},
	}
	seed(t, store, "lic-1", &session.Snapshot{
		Usage:        usage.State{Messages: 12, VoiceMinutes: 3.5},
		Conversation: turns,
		Timestamp:    time.Date(2026, time.October, 2, 8, 0, 0, 0, time.UTC),
	})
	s, rec := newTestSession(t, newFakeGateway("Pro Plan"), store)

	require.NoError(t, s.Init(context.Background()))

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, plan.Pro, s.Plan())
	assert.Equal(t, usage.State{Messages: 12, VoiceMinutes: 3.5}, s.Usage())
	assert.Equal(t, turns, s.Conversation())
	assert.Equal(t, "738 messages left | 496 minutes left", lastNotice(t, rec, NoticeUsage))
}

func TestInitResetsOnNewPeriod(t *testing.T) {
	cases := map[string]time.Time{
		"previous month":    time.Date(2026, time.September, 30, 23, 0, 0, 0, time.UTC),
		"twelve months ago": time.Date(2025, time.October, 16, 12, 0, 0, 0, time.UTC),
	}
	for name, ts := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemoryStore(t)
			seed(t, store, "lic-1", &session.Snapshot{
				Usage:        usage.State{Messages: 700, VoiceMinutes: 100},
				Conversation: []conversation.Turn{{Role: conversation.RoleUser, Content: "old"}},
				Timestamp:    ts,
			})
			s, _ := newTestSession(t, newFakeGateway("Pro Plan"), store)

			require.NoError(t, s.Init(context.Background()))

			assert.Equal(t, usage.State{}, s.Usage())
			assert.Empty(t, s.Conversation())
		})
	}
}

func TestSendTextExchange(t *testing.T) {
	gw := newFakeGateway("Premium Plan")
	store := newMemoryStore(t)
	s, rec := newTestSession(t, gw, store)
	require.NoError(t, s.Init(context.Background()))

	require.NoError(t, s.SendText(context.Background(), "  What are your hours?  "))

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, 1, s.Usage().Messages)
	assert.Equal(t, "Hello there.", lastNotice(t, rec, NoticeReply))

	req := gw.lastRequest(t)
	assert.Equal(t, plan.Premium, req.Plan)
	assert.Equal(t, []conversation.Turn{
		{Role: conversation.RoleSystem, Content: DefaultPersonality},
		{Role: conversation.RoleUser, Content: "What are your hours?"},
	}, req.Messages)

	snap, err := store.Load(context.Background(), "lic-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Usage.Messages)
	assert.Equal(t, s.Conversation(), snap.Conversation)
	assert.True(t, snap.Timestamp.Equal(testNow))
}

func TestSendTextEmpty(t *testing.T) {
	gw := newFakeGateway("Pro Plan")
	s, _ := newTestSession(t, gw, newMemoryStore(t))
	require.NoError(t, s.Init(context.Background()))

	assert.ErrorIs(t, s.SendText(context.Background(), "   "), ErrEmptyMessage)
	assert.Zero(t, gw.count(gateway.TargetCompletion))
}

func TestSystemPromptPersonalityAndKnowledge(t *testing.T) {
	gw := newFakeGateway("Pro Plan")
	rec := &Recorder{}
	s := New(Settings{
		Key:         "lic-1",
		Personality: "You are the bakery's assistant.",
		Knowledge:   "Open 8am to 6pm.",
	}, gw, newMemoryStore(t),
		WithReporter(rec),
		WithClock(func() time.Time { return testNow }),
		WithLogger(observability.Discard()),
		WithKnowledge(knowledge.Static("Closed on Mondays.")),
	)
	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.SendText(context.Background(), "hours?"))

	system := gw.lastRequest(t).Messages[0]
	assert.Equal(t, conversation.RoleSystem, system.Role)
	assert.Equal(t,
		"You are the bakery's assistant.\n\nUse this information: Open 8am to 6pm.\n\nClosed on Mondays.",
		system.Content)
}

type brokenKnowledge struct{}

func (brokenKnowledge) Knowledge(ctx context.Context, query string) (string, error) {
	return "", errors.New("qdrant unavailable")
}

func TestKnowledgeErrorIsIgnored(t *testing.T) {
	gw := newFakeGateway("Pro Plan")
	s, _ := newTestSession(t, gw, newMemoryStore(t), WithKnowledge(brokenKnowledge{}))
	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.SendText(context.Background(), "hi"))

	assert.Equal(t, DefaultPersonality, gw.lastRequest(t).Messages[0].Content)
}

func TestSettingsKnowledgeSurvivesFailingSource(t *testing.T) {
	gw := newFakeGateway("Pro Plan")
	s := New(Settings{
		Key:       "lic-1",
		Knowledge: "We open at 9am.",
	}, gw, newMemoryStore(t),
		WithReporter(&Recorder{}),
		WithClock(func() time.Time { return testNow }),
		WithLogger(observability.Discard()),
		WithKnowledge(brokenKnowledge{}),
	)
	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.SendText(context.Background(), "when do you open?"))

	assert.Equal(t,
		DefaultPersonality+"\n\nUse this information: We open at 9am.",
		gw.lastRequest(t).Messages[0].Content)
}

func TestHistoryWindowBoundsOutgoingContext(t *testing.T) {
	gw := newFakeGateway("Pro Plan")
	s, _ := newTestSession(t, gw, newMemoryStore(t), WithHistoryWindow(3, 0))
	require.NoError(t, s.Init(context.Background()))

	for i := range 3 {
		require.NoError(t, s.SendText(context.Background(), fmt.Sprintf("question %d", i)))
	}

	msgs := gw.lastRequest(t).Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, conversation.RoleSystem, msgs[0].Role)
	assert.Equal(t, "question 2", msgs[3].Content)
	assert.Len(t, s.Conversation(), 6)
}

func TestProLastMessageThenLocked(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store, "lic-1", &session.Snapshot{
		Usage:     usage.State{Messages: 749, VoiceMinutes: 10},
		Timestamp: testNow.Add(-time.Hour),
	})
	gw := newFakeGateway("Pro Plan")
	s, rec := newTestSession(t, gw, store)
	require.NoError(t, s.Init(context.Background()))

	require.NoError(t, s.SendText(context.Background(), "last one"))
	assert.Equal(t, usage.State{Messages: 750, VoiceMinutes: 10}, s.Usage())
	assert.Equal(t, 1, gw.count(gateway.TargetCompletion))

	err := s.SendText(context.Background(), "one more")
	var quotaErr *assistant.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, assistant.QuotaMessages, quotaErr.Kind)
	assert.Equal(t, StateLocked, s.State())
	assert.Equal(t, LockMessageQuotaExceeded, s.LockReason())
	assert.Equal(t, MsgMessageLimit, lastNotice(t, rec, NoticeError))
	assert.Equal(t, 1, gw.count(gateway.TargetCompletion))
	assert.Equal(t, 750, s.Usage().Messages)

	assert.ErrorIs(t, s.SendText(context.Background(), "again"), assistant.ErrLocked)
	assert.ErrorIs(t, s.ToggleVoice(context.Background()), assistant.ErrLocked)
}

func TestFailedCompletionStillCounts(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store, "lic-1", &session.Snapshot{
		Usage:     usage.State{Messages: 5, VoiceMinutes: 1},
		Timestamp: testNow.Add(-time.Hour),
	})
	gw := newFakeGateway("Pro Plan")
	gw.replyErr = &assistant.GatewayError{Target: "completion", Message: "Unknown API error", Status: 500}
	s, rec := newTestSession(t, gw, store)
	require.NoError(t, s.Init(context.Background()))

	err := s.SendText(context.Background(), "hello")

	var gwErr *assistant.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, usage.State{Messages: 6, VoiceMinutes: 1}, s.Usage())
	assert.Equal(t, MsgCompletionFailed, lastNotice(t, rec, NoticeError))
	assert.Equal(t, []conversation.Turn{{Role: conversation.RoleUser, Content: "hello"}}, s.Conversation())

	snap, err := store.Load(context.Background(), "lic-1")
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Usage.Messages, "failed turn is not persisted")
}

func TestCompletionWithoutChoices(t *testing.T) {
	gw := &emptyCompletionGateway{newFakeGateway("Pro Plan")}
	s, _ := newTestSession(t, gw, newMemoryStore(t))
	require.NoError(t, s.Init(context.Background()))

	err := s.SendText(context.Background(), "hello")

	var gwErr *assistant.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.ErrorIs(t, err, gateway.ErrNoChoices)
	assert.Equal(t, StateReady, s.State())
}

type emptyCompletionGateway struct{ *fakeGateway }

func (g *emptyCompletionGateway) Call(ctx context.Context, target gateway.Target, payload any) (json.RawMessage, error) {
	if target == gateway.TargetCompletion {
		return json.RawMessage(`{"choices":[]}`), nil
	}
	return g.fakeGateway.Call(ctx, target, payload)
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	store := &failingStore{Store: newMemoryStore(t)}
	s, rec := newTestSession(t, newFakeGateway("Pro Plan"), store)
	require.NoError(t, s.Init(context.Background()))

	require.NoError(t, s.SendText(context.Background(), "hello"))
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "Hello there.", lastNotice(t, rec, NoticeReply))
}

func TestTurnRejectedWhileAwaitingReply(t *testing.T) {
	gw := newFakeGateway("Pro Plan")
	gw.entered = make(chan struct{})
	gw.release = make(chan struct{})
	s, _ := newTestSession(t, gw, newMemoryStore(t))
	require.NoError(t, s.Init(context.Background()))

	done := make(chan error, 1)
	go func() { done <- s.SendText(context.Background(), "first") }()

	<-gw.entered
	assert.Equal(t, StateAwaitingReply, s.State())
	assert.ErrorIs(t, s.SendText(context.Background(), "second"), assistant.ErrTurnInProgress)

	close(gw.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, 1, s.Usage().Messages)
}

func TestVoiceTurn(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store, "lic-1", &session.Snapshot{
		Usage:     usage.State{Messages: 3, VoiceMinutes: 10},
		Timestamp: testNow.Add(-time.Hour),
	})
	gw := newFakeGateway("Pro Plan")
	capture := &fakeCapture{}
	playback := &fakePlayback{}
	rec := &Recorder{}
	s := New(Settings{Key: "lic-1", Voice: "Samantha"}, gw, store,
		WithReporter(rec),
		WithClock(func() time.Time { return testNow }),
		WithLogger(observability.Discard()),
		WithCapture(capture),
		WithPlayback(playback),
	)
	require.NoError(t, s.Init(context.Background()))

	require.NoError(t, s.ToggleVoice(context.Background()))
	assert.Equal(t, StateListening, s.State())
	assert.Equal(t, 1, capture.starts)

	capture.listener.OnResult("what's the weather")
	assert.Equal(t, StateSpeaking, s.State())
	require.Len(t, playback.utterances, 1)
	assert.Equal(t, speech.Utterance{Text: "Hello there.", Voice: "Samantha"}, playback.utterances[0])

	capture.listener.OnEnded(30 * time.Second)
	assert.Equal(t, StateSpeaking, s.State())
	assert.InDelta(t, 10.5, s.Usage().VoiceMinutes, 1e-9)

	playback.listener.OnEnded(90 * time.Second)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, 4, s.Usage().Messages)
	assert.InDelta(t, 12.0, s.Usage().VoiceMinutes, 1e-9)

	snap, err := store.Load(context.Background(), "lic-1")
	require.NoError(t, err)
	assert.InDelta(t, 12.0, snap.Usage.VoiceMinutes, 1e-9)
	assert.Equal(t, "746 messages left | 488 minutes left", lastNotice(t, rec, NoticeUsage))
}

func TestVoiceAccrualIsAdditive(t *testing.T) {
	capture := &fakeCapture{}
	s, _ := newTestSession(t, newFakeGateway("Business Plan"), newMemoryStore(t), WithCapture(capture))
	require.NoError(t, s.Init(context.Background()))

	d1, d2 := 45*time.Second, 75*time.Second
	for _, d := range []time.Duration{d1, d2} {
		require.NoError(t, s.ToggleVoice(context.Background()))
		capture.listener.OnEnded(d)
		assert.Equal(t, StateReady, s.State())
	}

	assert.InDelta(t, d1.Minutes()+d2.Minutes(), s.Usage().VoiceMinutes, 1e-9)
	assert.Zero(t, s.Usage().Messages, "capture without a result is not a message")
}

func TestToggleVoiceStopsCapture(t *testing.T) {
	capture := &fakeCapture{}
	s, _ := newTestSession(t, newFakeGateway("Pro Plan"), newMemoryStore(t), WithCapture(capture))
	require.NoError(t, s.Init(context.Background()))

	require.NoError(t, s.ToggleVoice(context.Background()))
	require.NoError(t, s.ToggleVoice(context.Background()))

	assert.Equal(t, 1, capture.starts)
	assert.Equal(t, 1, capture.stops)
	assert.Equal(t, StateListening, s.State())

	capture.listener.OnEnded(0)
	assert.Equal(t, StateReady, s.State())
}

func TestSpeechResultOutsideListeningIgnored(t *testing.T) {
	gw := newFakeGateway("Pro Plan")
	capture := &fakeCapture{}
	s, _ := newTestSession(t, gw, newMemoryStore(t), WithCapture(capture))
	require.NoError(t, s.Init(context.Background()))

	capture.listener.OnResult("stray")
	assert.Equal(t, StateReady, s.State())
	assert.Zero(t, gw.count(gateway.TargetCompletion))
}

func TestVoiceQuotaLocks(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store, "lic-1", &session.Snapshot{
		Usage:     usage.State{Messages: 10, VoiceMinutes: 500},
		Timestamp: testNow.Add(-time.Hour),
	})
	capture := &fakeCapture{}
	s, rec := newTestSession(t, newFakeGateway("Pro Plan"), store, WithCapture(capture))
	require.NoError(t, s.Init(context.Background()))

	err := s.ToggleVoice(context.Background())

	var quotaErr *assistant.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, assistant.QuotaVoice, quotaErr.Kind)
	assert.Equal(t, LockVoiceQuotaExceeded, s.LockReason())
	assert.Equal(t, MsgVoiceLimit, lastNotice(t, rec, NoticeError))
	assert.Zero(t, capture.starts)
}

func TestToggleVoiceTextPlanFallsBack(t *testing.T) {
	capture := &fakeCapture{}
	playback := &fakePlayback{}
	gw := newFakeGateway("Text Plan")
	s, _ := newTestSession(t, gw, newMemoryStore(t), WithCapture(capture), WithPlayback(playback))
	require.NoError(t, s.Init(context.Background()))

	err := s.ToggleVoice(context.Background())
	assert.ErrorIs(t, err, assistant.ErrUnsupportedCapability)
	assert.Equal(t, StateReady, s.State())
	assert.Zero(t, capture.starts)

	require.NoError(t, s.SendText(context.Background(), "hi"))
	assert.Empty(t, playback.utterances, "text plan replies are not spoken")
	assert.Equal(t, StateReady, s.State())
}

func TestToggleVoiceWithoutCapture(t *testing.T) {
	s, rec := newTestSession(t, newFakeGateway("Pro Plan"), newMemoryStore(t))
	require.NoError(t, s.Init(context.Background()))

	err := s.ToggleVoice(context.Background())
	assert.ErrorIs(t, err, assistant.ErrUnsupportedCapability)
	assert.Equal(t, MsgVoiceUnsupported, lastNotice(t, rec, NoticeError))
	assert.Equal(t, StateReady, s.State())
}

func TestCaptureStartFailure(t *testing.T) {
	capture := &fakeCapture{startErr: errors.New("microphone busy")}
	s, rec := newTestSession(t, newFakeGateway("Pro Plan"), newMemoryStore(t), WithCapture(capture))
	require.NoError(t, s.Init(context.Background()))

	err := s.ToggleVoice(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, "Voice error: microphone busy", lastNotice(t, rec, NoticeError))
}

func TestUnknownVariantUsesTextLimits(t *testing.T) {
	s, _ := newTestSession(t, newFakeGateway("Enterprise Plan"), newMemoryStore(t))
	require.NoError(t, s.Init(context.Background()))

	assert.Equal(t, plan.Text, s.Plan())
	messages, minutes := s.Remaining()
	assert.Equal(t, 500, messages)
	assert.Zero(t, minutes)
	assert.Equal(t, "500 messages left", s.UsageSummary())
}

func TestAccessorsReturnCopies(t *testing.T) {
	s, _ := newTestSession(t, newFakeGateway("Pro Plan"), newMemoryStore(t))
	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.SendText(context.Background(), "hi"))

	turns := s.Conversation()
	turns[0].Content = "changed"
	assert.Equal(t, "hi", s.Conversation()[0].Content)

	lic := s.License()
	require.NotNil(t, lic)
	lic.Key = "other"
	assert.Equal(t, "lic-1", s.License().Key)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "awaiting_reply", StateAwaitingReply.String())
	assert.Equal(t, "voice_quota_exceeded", LockVoiceQuotaExceeded.String())
}
