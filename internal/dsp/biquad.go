// Package dsp provides the sample-level building blocks for the tuner:
// the input conditioning filter chain and the sample rate converter.
package dsp

import "math"

// Filter corner frequencies for the tuner input chain.
// The low cut removes DC offset and rumble well below the lowest
// guitar fundamental; the high cut rejects content above the band the
// downsampled analysis cares about, before it can alias.
const (
	LowCutFreq  = 31.0   // Hz
	HighCutFreq = 5000.0 // Hz

	butterworthQ = 0.70710678 // 2-pole Butterworth width
)

// biquad is a single 2nd-order IIR section in transposed direct form II.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// process runs one sample through the section.
func (s *biquad) process(x float64) float64 {
	y := s.b0*x + s.z1
	s.z1 = s.b1*x - s.a1*y + s.z2
	s.z2 = s.b2*x - s.a2*y
	return y
}

// clear zeroes the delay line without touching the coefficients.
func (s *biquad) clear() {
	s.z1 = 0
	s.z2 = 0
}

// setHighpass computes RBJ cookbook highpass coefficients.
func (s *biquad) setHighpass(sampleRate, freq, q float64) {
	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha

	s.b0 = (1 + cw) / 2 / a0
	s.b1 = -(1 + cw) / a0
	s.b2 = (1 + cw) / 2 / a0
	s.a1 = -2 * cw / a0
	s.a2 = (1 - alpha) / a0
}

// setLowpass computes RBJ cookbook lowpass coefficients.
func (s *biquad) setLowpass(sampleRate, freq, q float64) {
	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha

	s.b0 = (1 - cw) / 2 / a0
	s.b1 = (1 - cw) / a0
	s.b2 = (1 - cw) / 2 / a0
	s.a1 = -2 * cw / a0
	s.a2 = (1 - alpha) / a0
}

// LowHighCut is the input conditioning chain: a 2nd-order low cut
// followed by a 2nd-order high cut. Coefficients are derived from the
// host sample rate; state must be cleared whenever the rate changes.
//
// Compute is only ever called from the audio goroutine and does no
// allocation. Init may allocate and must not race with Compute.
type LowHighCut struct {
	sampleRate float64
	lowCut     biquad
	highCut    biquad
}

// NewLowHighCut returns a filter chain configured for sampleRate.
func NewLowHighCut(sampleRate float64) *LowHighCut {
	f := &LowHighCut{}
	f.Init(sampleRate)
	return f
}

// Init recomputes the coefficients for a new sample rate and clears
// the filter state.
func (f *LowHighCut) Init(sampleRate float64) {
	f.sampleRate = sampleRate
	f.lowCut.setHighpass(sampleRate, LowCutFreq, butterworthQ)
	f.highCut.setLowpass(sampleRate, HighCutFreq, butterworthQ)
	f.Clear()
}

// Clear zeroes the delay lines of both sections.
func (f *LowHighCut) Clear() {
	f.lowCut.clear()
	f.highCut.clear()
}

// SampleRate reports the rate the coefficients were computed for.
func (f *LowHighCut) SampleRate() float64 {
	return f.sampleRate
}

// Compute filters buf in place.
func (f *LowHighCut) Compute(buf []float32) {
	for i, x := range buf {
		y := f.lowCut.process(float64(x))
		y = f.highCut.process(y)
		buf[i] = float32(y)
	}
}
