package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// CommandPlayback speaks through a local text-to-speech program such as
// espeak or say. The utterance text is passed as the last argument and a
// named voice as "-v <voice>".
type CommandPlayback struct {
	Name string
	Args []string

	mu       sync.Mutex
	listener Listener
}

// NewCommandPlayback returns a playback for the named program, or an error
// wrapping exec.ErrNotFound when it is not installed.
func NewCommandPlayback(name string, args ...string) (*CommandPlayback, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("speech playback %q: %w", name, err)
	}
	return &CommandPlayback{Name: name, Args: args}, nil
}

// Subscribe implements Playback.
func (p *CommandPlayback) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.listener = l
}

// Start implements Playback. The program runs in the background; the listener
// receives OnEnded with the time it took once it exits.
func (p *CommandPlayback) Start(ctx context.Context, u Utterance) error {
	if u.Text == "" {
		return errors.New("speech playback: empty utterance")
	}

	args := append([]string{}, p.Args...)
	if u.Voice != "" && u.Voice != "default" {
		args = append(args, "-v", u.Voice)
	}
	args = append(args, u.Text)

	// Playback has no cancellation path, so the command is detached from ctx.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), p.Name, args...)
	sw := NewStopwatch(nil)
	sw.Start()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("speech playback: %w", err)
	}

	go func() {
		err := cmd.Wait()
		elapsed := sw.Stop()

		p.mu.Lock()
		l := p.listener
		p.mu.Unlock()
		if l == nil {
			return
		}
		if err != nil {
			l.OnError(fmt.Errorf("speech playback: %w", err))
		}
		l.OnEnded(elapsed)
	}()
	return nil
}

var _ Playback = (*CommandPlayback)(nil)
