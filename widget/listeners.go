package widget

import (
	"fmt"
	"strings"
	"time"
)

// captureListener turns speech recognition events into session inputs.
type captureListener struct{ s *Session }

func (l captureListener) OnResult(text string)          { l.s.onCaptureResult(text) }
func (l captureListener) OnEnded(elapsed time.Duration) { l.s.onCaptureEnded(elapsed) }
func (l captureListener) OnError(err error)             { l.s.onSpeechError("capture", err) }

// playbackListener turns speech synthesis events into session inputs.
type playbackListener struct{ s *Session }

func (l playbackListener) OnResult(string)               {}
func (l playbackListener) OnEnded(elapsed time.Duration) { l.s.onPlaybackEnded(elapsed) }
func (l playbackListener) OnError(err error)             { l.s.onSpeechError("playback", err) }

// onCaptureResult runs the recognized text as the turn admitted by ToggleVoice.
// Results outside Listening are dropped.
func (s *Session) onCaptureResult(text string) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.state != StateListening || text == "" {
		state := s.state
		s.mu.Unlock()
		s.logger.Debug("speech result ignored", "state", state.String())
		return
	}
	s.state = StateAwaitingReply
	ctx := s.turnCtx
	s.mu.Unlock()

	// failures are already reported
	_ = s.exchange(ctx, text)
}

// onCaptureEnded accrues the capture interval. A capture that ends without a
// result returns the session to Ready.
func (s *Session) onCaptureEnded(elapsed time.Duration) {
	s.accrue(elapsed)
	s.transition(StateListening, StateReady)
}

// onPlaybackEnded accrues the playback interval and finishes the turn.
func (s *Session) onPlaybackEnded(elapsed time.Duration) {
	s.accrue(elapsed)
	s.transition(StateSpeaking, StateReady)
}

func (s *Session) onSpeechError(source string, err error) {
	s.logger.Warn("speech error", "source", source, "error", err)
	s.report(NoticeError, fmt.Sprintf("Voice error: %v", err))
}

func (s *Session) accrue(elapsed time.Duration) {
	m := s.currentMeter()
	if m == nil {
		return
	}

	s.mu.Lock()
	ctx := s.turnCtx
	s.mu.Unlock()

	m.AccrueVoice(elapsed)
	s.persist(ctx)
	s.report(NoticeUsage, m.Summary())
}
