// Package conversation holds the ordered log of exchanged turns.
package conversation

import "sync"

// Role is the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single conversation entry. It is persisted and sent to the relay verbatim.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Log is an append-only sequence of turns. Readers always receive copies.
type Log struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewLog creates a log seeded with a copy of turns.
func NewLog(turns []Turn) *Log {
	l := &Log{}
	l.Replace(turns)
	return l
}

// Append adds a turn at the end of the log.
func (l *Log) Append(role Role, content string) Turn {
	t := Turn{Role: role, Content: content}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = append(l.turns, t)
	return t
}

// Replace discards the current turns and stores a copy of turns.
func (l *Log) Replace(turns []Turn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = Clone(turns)
}

// Turns returns a copy of all turns in order.
func (l *Log) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Clone(l.turns)
}

// Len returns the number of turns.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.turns)
}

// Window returns the most recent turns that fit within the given limits.
// A limit of zero or less disables that bound.
func (l *Log) Window(tokenLimit, messageLimit int) []Turn {
	return TruncateHistory(l.Turns(), tokenLimit, messageLimit)
}

// Clone returns a copy of turns that never aliases the input. A nil input
// yields an empty, non-nil slice so snapshots always encode as [].
func Clone(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
