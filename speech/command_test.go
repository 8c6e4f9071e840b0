package speech

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	ended chan time.Duration
	errs  chan error
}

func newRecordingListener() *recordingListener {
	return &recordingListener{ended: make(chan time.Duration, 1), errs: make(chan error, 1)}
}

func (r *recordingListener) OnResult(string)               {}
func (r *recordingListener) OnEnded(elapsed time.Duration) { r.ended <- elapsed }
func (r *recordingListener) OnError(err error)             { r.errs <- err }

func TestCommandPlaybackReportsEnded(t *testing.T) {
	p, err := NewCommandPlayback("echo")
	if errors.Is(err, exec.ErrNotFound) {
		t.Skip("echo not available")
	}
	require.NoError(t, err)

	l := newRecordingListener()
	p.Subscribe(l)
	require.NoError(t, p.Start(context.Background(), Utterance{Text: "hello", Voice: "en"}))

	select {
	case elapsed := <-l.ended:
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not end")
	}
	assert.Empty(t, l.errs)
}

func TestCommandPlaybackMissingProgram(t *testing.T) {
	_, err := NewCommandPlayback("definitely-not-a-tts-program")
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestCommandPlaybackEmptyText(t *testing.T) {
	p := &CommandPlayback{Name: "echo"}
	assert.Error(t, p.Start(context.Background(), Utterance{}))
}
