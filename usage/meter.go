// Package usage tracks message and voice-minute consumption against a plan's quota.
package usage

import (
	"fmt"
	"math"
	"sync"
	"time"

	assistant "github.com/creastat/assistant"
	"github.com/creastat/assistant/plan"
)

// State is the consumption recorded for the current billing period.
type State struct {
	Messages     int     `json:"messages"`
	VoiceMinutes float64 `json:"voice_minutes"`
}

// Meter enforces admission and records accrual for one session.
type Meter struct {
	mu     sync.RWMutex
	limits plan.Limits
	state  State
}

// NewMeter creates a meter for the given limits starting from state.
func NewMeter(limits plan.Limits, state State) *Meter {
	return &Meter{limits: limits, state: sanitize(state)}
}

// Limits returns the quota the meter enforces.
func (m *Meter) Limits() plan.Limits {
	return m.limits
}

// State returns a copy of the current consumption.
func (m *Meter) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// Restore replaces the consumption, e.g. after loading a snapshot.
func (m *Meter) Restore(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = sanitize(s)
}

// AdmitMessage fails when the message quota is exhausted.
func (m *Meter) AdmitMessage() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state.Messages >= m.limits.Messages {
		return &assistant.QuotaExceededError{
			Kind:  assistant.QuotaMessages,
			Used:  float64(m.state.Messages),
			Limit: float64(m.limits.Messages),
		}
	}
	return nil
}

// AdmitVoice fails when the voice-minute quota is exhausted. Plans without voice
// minutes always fail.
func (m *Meter) AdmitVoice() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state.VoiceMinutes >= m.limits.VoiceMinutes {
		return &assistant.QuotaExceededError{
			Kind:  assistant.QuotaVoice,
			Used:  m.state.VoiceMinutes,
			Limit: m.limits.VoiceMinutes,
		}
	}
	return nil
}

// RecordMessage counts one admitted message.
func (m *Meter) RecordMessage() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Messages++
	return m.state
}

// AccrueVoice adds the elapsed speech duration, in minutes. Non-positive
// durations are ignored so the total never decreases.
func (m *Meter) AccrueVoice(elapsed time.Duration) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elapsed > 0 {
		m.state.VoiceMinutes += elapsed.Minutes()
	}
	return m.state
}

// Remaining returns how many messages and whole voice minutes are left.
func (m *Meter) Remaining() (messages int, minutes int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages = m.limits.Messages - m.state.Messages
	if messages < 0 {
		messages = 0
	}
	minutes = int(math.Floor(m.limits.VoiceMinutes - m.state.VoiceMinutes))
	if minutes < 0 {
		minutes = 0
	}
	return messages, minutes
}

// Summary renders the remaining quota for display, e.g. "749 messages left | 490 minutes left".
func (m *Meter) Summary() string {
	messages, minutes := m.Remaining()
	s := fmt.Sprintf("%d messages left", messages)
	if m.limits.VoiceMinutes > 0 {
		s += fmt.Sprintf(" | %d minutes left", minutes)
	}
	return s
}

func sanitize(s State) State {
	if s.Messages < 0 {
		s.Messages = 0
	}
	if s.VoiceMinutes < 0 || math.IsNaN(s.VoiceMinutes) || math.IsInf(s.VoiceMinutes, 0) {
		s.VoiceMinutes = 0
	}
	return s
}
