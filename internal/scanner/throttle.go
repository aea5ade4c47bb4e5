package scanner

import (
	"net/http"
	"sync"
	"time"

	"github.com/chainreactors/logs"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Throttler paces workers. With adaptive back-off enabled it doubles the
// per-request delay on 429/503 answers or a run of transport errors, and
// halves it again toward the base delay once responses look healthy.
type Throttler struct {
	mu       sync.Mutex
	base     time.Duration
	current  time.Duration
	signals  int // consecutive throttle signals
	adaptive bool
}

// NewThrottler creates a throttler with a fixed base delay.
func NewThrottler(base time.Duration, adaptive bool) *Throttler {
	return &Throttler{base: base, current: base, adaptive: adaptive}
}

// Delay returns the delay a worker should sleep before its next request.
func (t *Throttler) Delay() time.Duration {
	if !t.adaptive {
		return t.base
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// RecordStatus feeds a response status into the back-off state.
func (t *Throttler) RecordStatus(status int) {
	if !t.adaptive {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		t.signals++
		if t.backoff() {
			logs.Log.Warnf("rate limited (HTTP %d), backing off to %s/req", status, t.current)
		}
		return
	}
	if t.signals == 0 {
		return
	}
	t.signals = 0
	next := t.current / 2
	if next < t.base {
		next = t.base
	}
	if next != t.current {
		t.current = next
		logs.Log.Infof("recovering, delay now %s/req", t.current)
	}
}

// RecordError counts a transport error; three in a row trigger a back-off.
func (t *Throttler) RecordError() {
	if !t.adaptive {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signals++
	if t.signals >= 3 && t.backoff() {
		logs.Log.Warnf("repeated errors, backing off to %s/req", t.current)
	}
}

// backoff doubles the current delay within bounds. Caller holds mu.
func (t *Throttler) backoff() bool {
	next := t.current * 2
	if next < minBackoff {
		next = minBackoff
	}
	if next > maxBackoff {
		next = maxBackoff
	}
	if next == t.current {
		return false
	}
	t.current = next
	return true
}
