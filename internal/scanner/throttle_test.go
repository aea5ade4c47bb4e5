package scanner

import (
	"testing"
	"time"
)

func TestThrottlerDisabledKeepsBase(t *testing.T) {
	th := NewThrottler(10*time.Millisecond, false)
	th.RecordStatus(429)
	th.RecordError()
	if th.Delay() != 10*time.Millisecond {
		t.Fatalf("delay = %s, want base", th.Delay())
	}
}

func TestThrottlerBacksOffAndRecovers(t *testing.T) {
	th := NewThrottler(0, true)

	th.RecordStatus(429)
	if th.Delay() != minBackoff {
		t.Fatalf("delay = %s, want %s", th.Delay(), minBackoff)
	}
	th.RecordStatus(503)
	if th.Delay() != 2*minBackoff {
		t.Fatalf("delay = %s, want %s", th.Delay(), 2*minBackoff)
	}

	th.RecordStatus(200)
	if th.Delay() != minBackoff {
		t.Fatalf("delay = %s after recovery, want %s", th.Delay(), minBackoff)
	}
}

func TestThrottlerErrorsNeedThreeInARow(t *testing.T) {
	th := NewThrottler(0, true)
	th.RecordError()
	th.RecordError()
	if th.Delay() != 0 {
		t.Fatalf("delay = %s after two errors, want 0", th.Delay())
	}
	th.RecordError()
	if th.Delay() != minBackoff {
		t.Fatalf("delay = %s after three errors, want %s", th.Delay(), minBackoff)
	}
}

func TestThrottlerCapsAtMax(t *testing.T) {
	th := NewThrottler(20*time.Second, true)
	th.RecordStatus(429)
	th.RecordStatus(429)
	if th.Delay() != maxBackoff {
		t.Fatalf("delay = %s, want %s", th.Delay(), maxBackoff)
	}
}
