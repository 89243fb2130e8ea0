package dsp

import (
	"math"
	"testing"
)

// drain runs the full input through the resampler the way the tracker
// does: re-presenting the remaining input and a fresh output window
// until everything is consumed.
func drain(r *Resampler, in []float32, window int) []float32 {
	var out []float32
	buf := make([]float32, window)
	for len(in) > 0 {
		consumed, produced := r.Process(in, buf)
		out = append(out, buf[:produced]...)
		in = in[consumed:]
		if consumed == 0 && produced == 0 {
			break
		}
	}
	return out
}

// measureFreq estimates the frequency of a sine by counting upward
// zero crossings.
func measureFreq(buf []float32, sampleRate float64) float64 {
	crossings := 0
	first, last := -1, -1
	for i := 1; i < len(buf); i++ {
		if buf[i-1] < 0 && buf[i] >= 0 {
			crossings++
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if crossings < 2 {
		return 0
	}
	return float64(crossings-1) * sampleRate / float64(last-first)
}

func TestNewResampler(t *testing.T) {
	t.Run("rejects non-positive rates", func(t *testing.T) {
		if _, err := NewResampler(0, 20500, 16); err != ErrResamplerRatio {
			t.Errorf("err = %v, want ErrResamplerRatio", err)
		}
		if _, err := NewResampler(48000, -1, 16); err != ErrResamplerRatio {
			t.Errorf("err = %v, want ErrResamplerRatio", err)
		}
	})

	t.Run("rejects extreme ratios", func(t *testing.T) {
		if _, err := NewResampler(48000, 1000, 16); err != ErrResamplerRatio {
			t.Errorf("48000->1000: err = %v, want ErrResamplerRatio", err)
		}
		if _, err := NewResampler(1000, 48000, 16); err != ErrResamplerRatio {
			t.Errorf("1000->48000: err = %v, want ErrResamplerRatio", err)
		}
	})

	t.Run("accepts the tuner ratio", func(t *testing.T) {
		if _, err := NewResampler(48000, 20500, 16); err != nil {
			t.Fatalf("48000->20500: %v", err)
		}
	})
}

func TestResamplerProcess(t *testing.T) {
	t.Run("unit DC gain", func(t *testing.T) {
		r, err := NewResampler(48000, 20500, 16)
		if err != nil {
			t.Fatal(err)
		}
		in := make([]float32, 9600)
		for i := range in {
			in[i] = 1.0
		}
		out := drain(r, in, 512)
		if len(out) == 0 {
			t.Fatal("no output produced")
		}
		// Skip the priming transient.
		for i, v := range out[200:] {
			if math.Abs(float64(v)-1.0) > 0.01 {
				t.Fatalf("output[%d] = %f, want 1.0 within 0.01", i+200, v)
			}
		}
	})

	t.Run("preserves a 440 Hz sine", func(t *testing.T) {
		r, err := NewResampler(48000, 20500, 16)
		if err != nil {
			t.Fatal(err)
		}
		in := sineBlock(440, 0.5, 48000, 48000)
		out := drain(r, in, 512)

		got := measureFreq(out[500:], 20500)
		if math.Abs(got-440) > 2 {
			t.Errorf("measured %f Hz, want 440 within 2", got)
		}
	})

	t.Run("output count follows the ratio", func(t *testing.T) {
		r, err := NewResampler(48000, 20500, 16)
		if err != nil {
			t.Fatal(err)
		}
		in := make([]float32, 48000)
		out := drain(r, in, 512)

		want := float64(len(in)) * 20500 / 48000
		if math.Abs(float64(len(out))-want) > want*0.01+float64(r.taps) {
			t.Errorf("produced %d samples, want about %.0f", len(out), want)
		}
	})

	t.Run("consumes everything across small windows", func(t *testing.T) {
		r, err := NewResampler(44100, 20500, 16)
		if err != nil {
			t.Fatal(err)
		}
		in := sineBlock(100, 0.1, 44100, 4410)
		total := 0
		buf := make([]float32, 17) // deliberately awkward window
		for len(in) > 0 {
			consumed, produced := r.Process(in, buf)
			in = in[consumed:]
			total += produced
			if consumed == 0 && produced == 0 {
				t.Fatal("resampler made no progress")
			}
		}
		if total == 0 {
			t.Error("no output produced")
		}
	})

	t.Run("reset restores the initial state", func(t *testing.T) {
		r, err := NewResampler(48000, 20500, 16)
		if err != nil {
			t.Fatal(err)
		}
		in := sineBlock(440, 0.5, 48000, 4800)
		first := drain(r, append([]float32(nil), in...), 512)
		r.Reset()
		second := drain(r, append([]float32(nil), in...), 512)

		if len(first) != len(second) {
			t.Fatalf("lengths differ after Reset: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Fatalf("sample %d differs after Reset: %f vs %f", i, first[i], second[i])
			}
		}
	})
}
