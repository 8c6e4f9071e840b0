package widget

import "sync"

// NoticeKind classifies what the host should render in the message area.
type NoticeKind string

const (
	// NoticeReply is an assistant reply.
	NoticeReply NoticeKind = "reply"

	// NoticeError is a user-visible failure: fatal lock reasons, apologies, voice errors.
	NoticeError NoticeKind = "error"

	// NoticeUsage carries the remaining quota summary.
	NoticeUsage NoticeKind = "usage"
)

// User-facing texts.
const (
	MsgMissingKey       = "License key is missing. Please add `key` to the widget settings."
	MsgMessageLimit     = "You have reached your monthly message limit."
	MsgVoiceLimit       = "You have reached your monthly voice minutes limit."
	MsgCompletionFailed = "Sorry, I couldn't connect to the AI."
	MsgVoiceUnsupported = "Voice recognition is not supported on this device."
)

// Notice is one message for the widget's message area.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Reporter renders notices. Errors never escape the widget other than through it
// and the return values of Session methods.
type Reporter interface {
	Report(n Notice)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(n Notice)

// Report implements Reporter.
func (f ReporterFunc) Report(n Notice) { f(n) }

type discardReporter struct{}

func (discardReporter) Report(Notice) {}

// Recorder is a Reporter that keeps every notice. Useful for hosts that poll.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Report implements Reporter.
func (r *Recorder) Report(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Drain returns and clears the recorded notices.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.notices
	r.notices = nil
	return out
}
