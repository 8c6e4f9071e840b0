// Package assistant holds the error taxonomy shared by the widget session,
// the gateway client, the persistence drivers and the relay.
package assistant

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrNotFound         = errors.New("not found")

	// ErrUnsupportedCapability is returned when speech capture or playback is
	// not available; hosts fall back to the text input path.
	ErrUnsupportedCapability = errors.New("unsupported capability")

	// ErrTurnInProgress is returned when a turn is requested while another one
	// is still being processed.
	ErrTurnInProgress = errors.New("turn already in progress")

	// ErrLocked is returned for any interaction attempted after the session
	// entered its terminal locked state.
	ErrLocked = errors.New("session locked")
)

// ConfigurationError reports a fatal problem with the widget settings.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

// LicenseErrorKind distinguishes a rejected license from an unreachable license server.
type LicenseErrorKind int

const (
	LicenseInvalid LicenseErrorKind = iota + 1
	LicenseUnreachable
)

func (k LicenseErrorKind) String() string {
	switch k {
	case LicenseInvalid:
		return "invalid"
	case LicenseUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// LicenseError is terminal for the session. Reason is the user-facing text.
type LicenseError struct {
	Kind   LicenseErrorKind
	Reason string
	Err    error
}

func (e *LicenseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("license %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("license %s: %s", e.Kind, e.Reason)
}

func (e *LicenseError) Unwrap() error {
	return e.Err
}

// GatewayError wraps every failure of a relay call: transport errors, non-2xx
// statuses and malformed bodies. Status is zero when no response was received.
type GatewayError struct {
	Target  string
	Message string
	Status  int
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s: status %d: %s", e.Target, e.Status, e.Message)
	}
	return fmt.Sprintf("gateway %s: %s", e.Target, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// QuotaKind identifies which quota was exhausted.
type QuotaKind int

const (
	QuotaMessages QuotaKind = iota + 1
	QuotaVoice
)

func (k QuotaKind) String() string {
	switch k {
	case QuotaMessages:
		return "messages"
	case QuotaVoice:
		return "voice_minutes"
	default:
		return "unknown"
	}
}

// QuotaExceededError is returned when admission rejects a turn.
type QuotaExceededError struct {
	Kind  QuotaKind
	Used  float64
	Limit float64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s (%g/%g)", e.Kind, e.Used, e.Limit)
}

// Is lets errors.Is(err, ErrLocked) match quota rejections, which always lock the session.
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrLocked
}
