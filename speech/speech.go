// Package speech defines the capture (speech-to-text) and playback
// (text-to-speech) collaborators of a widget session. Implementations deliver
// their completion signals to a Listener, typically from their own goroutine.
package speech

import (
	"context"
	"time"
)

// Listener receives speech events.
type Listener interface {
	// OnResult delivers recognized text, before the OnEnded of the same capture.
	// Playback never calls it.
	OnResult(text string)

	// OnEnded reports that a capture or playback interval finished after elapsed.
	OnEnded(elapsed time.Duration)

	// OnError reports a failure during capture or playback. OnEnded still
	// follows, with zero elapsed if no audio time was consumed.
	OnError(err error)
}

// Capture is a speech recognizer. At most one capture session runs at a time.
type Capture interface {
	// Subscribe registers the listener for all future capture sessions.
	Subscribe(l Listener)

	// Start begins a capture session.
	Start(ctx context.Context) error

	// Stop ends the active capture session, if any. It is the only cancellation primitive.
	Stop() error
}

// Utterance is text to be spoken with an optional named voice.
type Utterance struct {
	Text  string
	Voice string
}

// Playback is a speech synthesizer. Playback runs to completion once started.
type Playback interface {
	// Subscribe registers the listener for all future playbacks.
	Subscribe(l Listener)

	// Start begins speaking u.
	Start(ctx context.Context, u Utterance) error
}
