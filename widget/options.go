package widget

import (
	"log/slog"
	"time"

	"github.com/creastat/assistant/knowledge"
	"github.com/creastat/assistant/speech"
)

// Option configures a Session.
type Option func(*Session)

// WithCapture sets the speech recognizer. Without one, voice turns fall back to text.
func WithCapture(c speech.Capture) Option {
	return func(s *Session) { s.capture = c }
}

// WithPlayback sets the speech synthesizer used to read replies aloud.
func WithPlayback(p speech.Playback) Option {
	return func(s *Session) { s.playback = p }
}

// WithReporter sets where user-visible notices go.
func WithReporter(r Reporter) Option {
	return func(s *Session) { s.reporter = r }
}

// WithKnowledge adds a knowledge source to the one configured in Settings.
func WithKnowledge(k knowledge.Source) Option {
	return func(s *Session) { s.extraKnowledge = k }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithHistoryWindow bounds the conversation sent with each completion.
// Zero disables a bound.
func WithHistoryWindow(messages, tokens int) Option {
	return func(s *Session) {
		s.historyMessages = messages
		s.historyTokens = tokens
	}
}
