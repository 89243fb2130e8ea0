package dsp

import (
	"math"
	"testing"
)

// sineBlock fills a slice with a sine of the given frequency and
// amplitude at the given sample rate.
func sineBlock(freq, amp, sampleRate float64, n int) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return buf
}

func rms(buf []float32) float64 {
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestLowHighCut(t *testing.T) {
	const sampleRate = 48000.0

	t.Run("blocks DC", func(t *testing.T) {
		f := NewLowHighCut(sampleRate)
		buf := make([]float32, 48000)
		for i := range buf {
			buf[i] = 1.0
		}
		f.Compute(buf)

		// After a second of constant input the low cut has settled.
		tail := buf[len(buf)-100:]
		if r := rms(tail); r > 0.01 {
			t.Errorf("DC residual RMS = %f, want < 0.01", r)
		}
	})

	t.Run("passes midband near unity", func(t *testing.T) {
		f := NewLowHighCut(sampleRate)
		buf := sineBlock(440, 0.5, sampleRate, 48000)
		f.Compute(buf)

		// Skip the transient, compare steady-state RMS against the
		// ideal sine RMS of amp/sqrt(2).
		got := rms(buf[24000:])
		want := 0.5 / math.Sqrt2
		if math.Abs(got-want)/want > 0.05 {
			t.Errorf("440 Hz RMS = %f, want %f within 5%%", got, want)
		}
	})

	t.Run("attenuates above the high cut", func(t *testing.T) {
		f := NewLowHighCut(sampleRate)
		buf := sineBlock(15000, 0.5, sampleRate, 48000)
		f.Compute(buf)

		got := rms(buf[24000:])
		want := 0.5 / math.Sqrt2
		if got > want*0.2 {
			t.Errorf("15 kHz RMS = %f, want < %f", got, want*0.2)
		}
	})

	t.Run("clear resets state", func(t *testing.T) {
		f := NewLowHighCut(sampleRate)
		f.Compute(sineBlock(440, 1.0, sampleRate, 1024))
		f.Clear()

		buf := make([]float32, 64)
		f.Compute(buf)
		for i, v := range buf {
			if v != 0 {
				t.Fatalf("sample %d = %f after Clear on silence, want 0", i, v)
			}
		}
	})

	t.Run("init adopts the new rate", func(t *testing.T) {
		f := NewLowHighCut(sampleRate)
		f.Init(44100)
		if f.SampleRate() != 44100 {
			t.Errorf("SampleRate() = %f, want 44100", f.SampleRate())
		}
	})
}
