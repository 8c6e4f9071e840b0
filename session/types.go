// Package session persists widget state (usage and conversation) per license key.
package session

import (
	"encoding/json"
	"time"

	"github.com/creastat/assistant/conversation"
	"github.com/creastat/assistant/usage"
)

// Snapshot is the unit of persistence.
//
// Encoded as:
//
//	{"usage": {"messages": 3, "voice_minutes": 1.25},
//	 "conversation": [{"role": "user", "content": "hi"}],
//	 "timestamp": "2026-10-16T09:30:00Z"}
type Snapshot struct {
	Usage        usage.State         `json:"usage"`
	Conversation []conversation.Turn `json:"conversation"`
	Timestamp    time.Time           `json:"timestamp"`
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		Usage:        s.Usage,
		Conversation: conversation.Clone(s.Conversation),
		Timestamp:    s.Timestamp,
	}
}

func encode(s *Snapshot) ([]byte, error) {
	return json.Marshal(s.Clone())
}

// decode returns nil for anything that is not a well-formed snapshot.
func decode(b []byte) *Snapshot {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s.Conversation = conversation.Clone(s.Conversation)
	return &s
}
