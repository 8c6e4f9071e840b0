package widget

// State is the session's position in its lifecycle.
type State int

const (
	// StateUninitialized is the state before Init has resolved the license.
	StateUninitialized State = iota

	// StateLocked is terminal; see LockReason.
	StateLocked

	// StateReady accepts a new turn.
	StateReady

	// StateAwaitingReply waits for the completion of the current turn.
	StateAwaitingReply

	// StateListening has a speech capture session running.
	StateListening

	// StateSpeaking is playing back the assistant's reply.
	StateSpeaking
)

// String returns a string representation of the session state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLocked:
		return "locked"
	case StateReady:
		return "ready"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateListening:
		return "listening"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// LockReason explains why a session is locked.
type LockReason int

const (
	LockNone LockReason = iota
	LockMissingKey
	LockLicenseInvalid
	LockLicenseUnreachable
	LockMessageQuotaExceeded
	LockVoiceQuotaExceeded
)

func (r LockReason) String() string {
	switch r {
	case LockNone:
		return "none"
	case LockMissingKey:
		return "missing_key"
	case LockLicenseInvalid:
		return "license_invalid"
	case LockLicenseUnreachable:
		return "license_unreachable"
	case LockMessageQuotaExceeded:
		return "message_quota_exceeded"
	case LockVoiceQuotaExceeded:
		return "voice_quota_exceeded"
	default:
		return "unknown"
	}
}
