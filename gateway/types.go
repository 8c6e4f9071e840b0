package gateway

import (
	"encoding/json"
	"errors"

	"github.com/creastat/assistant/conversation"
	"github.com/creastat/assistant/plan"
)

// Target selects the upstream the relay forwards a payload to.
type Target string

const (
	TargetLicense    Target = "license"
	TargetCompletion Target = "completion"
)

// Valid reports whether t is a target the relay routes.
func (t Target) Valid() bool {
	return t == TargetLicense || t == TargetCompletion
}

// RelayRequest is the body posted to the relay endpoint.
type RelayRequest struct {
	TargetAPI Target          `json:"targetApi"`
	Payload   json.RawMessage `json:"payload"`
}

// ErrorBody is the body the relay returns with non-2xx statuses.
type ErrorBody struct {
	Error string `json:"error"`
}

// LicenseRequest is the payload for TargetLicense.
type LicenseRequest struct {
	LicenseKey   string `json:"license_key"`
	InstanceName string `json:"instance_name"`
}

// LicenseResponse is the license server's answer.
type LicenseResponse struct {
	Valid bool        `json:"valid"`
	Meta  LicenseMeta `json:"meta"`
	Error string      `json:"error,omitempty"`
}

// LicenseMeta carries the purchased variant, e.g. "Pro Plan".
type LicenseMeta struct {
	VariantName string `json:"variant_name"`
}

// CompletionRequest is the payload for TargetCompletion.
type CompletionRequest struct {
	Messages []conversation.Turn `json:"messages"`
	Plan     plan.ID             `json:"plan"`
}

// CompletionResponse is the subset of a chat completion the widget consumes.
type CompletionResponse struct {
	Choices []CompletionChoice `json:"choices"`
}

type CompletionChoice struct {
	Message CompletionMessage `json:"message"`
}

type CompletionMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// ErrNoChoices is returned when a completion carries no choices.
var ErrNoChoices = errors.New("completion returned no choices")

// FirstContent returns the content of the first choice.
func (r *CompletionResponse) FirstContent() (string, error) {
	if len(r.Choices) == 0 {
		return "", ErrNoChoices
	}
	return r.Choices[0].Message.Content, nil
}
