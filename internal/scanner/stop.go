package scanner

import (
	"sync"
	"sync/atomic"
)

// StopSignal is a one-shot flag. The first Fire wins; later calls are
// no-ops. Fired never blocks, so workers can poll it on every iteration.
type StopSignal struct {
	fired  atomic.Bool
	mu     sync.Mutex
	winner string
	done   chan struct{}
}

// NewStopSignal returns an unset signal.
func NewStopSignal() *StopSignal {
	return &StopSignal{done: make(chan struct{})}
}

// Fire sets the signal and records candidate as the winner. It returns
// false if the signal was already set.
func (s *StopSignal) Fire(candidate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fired.Load() {
		return false
	}
	s.winner = candidate
	s.fired.Store(true)
	close(s.done)
	return true
}

// Fired reports whether the signal has been set.
func (s *StopSignal) Fired() bool { return s.fired.Load() }

// Done is closed when the signal fires.
func (s *StopSignal) Done() <-chan struct{} { return s.done }

// Winner returns the candidate that fired the signal.
func (s *StopSignal) Winner() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner, s.fired.Load()
}
