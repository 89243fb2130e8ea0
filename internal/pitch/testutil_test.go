package pitch

import (
	"math"
	"sync"
	"testing"
	"time"
)

// sineBlock fills a fresh slice with a sine at the given frequency,
// amplitude and sample rate, continuing from sample offset.
func sineBlock(freq, amp, sampleRate float64, offset, n int) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(offset+i)/sampleRate))
	}
	return buf
}

// waitFor polls cond until it returns true or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

// freqRecorder captures every frequency publication from a tracker's
// freq-changed callback.
type freqRecorder struct {
	mu     sync.Mutex
	t      *Tracker
	values []float32
}

func (r *freqRecorder) callback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, r.t.EstimatedFreq())
}

func (r *freqRecorder) published() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float32(nil), r.values...)
}

// newTestTracker wires a tracker to a recorder and registers cleanup.
func newTestTracker(t *testing.T) (*Tracker, *freqRecorder) {
	t.Helper()
	rec := &freqRecorder{}
	tr := NewTracker(rec.callback)
	rec.t = tr
	t.Cleanup(tr.Stop)
	return tr, rec
}
