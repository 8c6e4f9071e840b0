package speech

import (
	"sync"
	"time"
)

// Stopwatch measures the wall-clock length of one capture or playback
// interval. Implementations call Start on their start event and Stop on their
// end event and pass the result to Listener.OnEnded.
type Stopwatch struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	running bool
}

// NewStopwatch creates a stopwatch. A nil clock uses time.Now.
func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

// Start marks the beginning of an interval, restarting any running one.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started = s.now()
	s.running = true
}

// Stop ends the interval and returns its length. Stop without Start returns zero.
func (s *Stopwatch) Stop() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return 0
	}
	s.running = false
	return s.now().Sub(s.started)
}
