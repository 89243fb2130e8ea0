package dsp

import (
	"errors"
	"math"
)

// ErrResamplerRatio is returned when the requested conversion ratio
// cannot be represented by the converter.
var ErrResamplerRatio = errors.New("dsp: resampler ratio out of range")

// Kaiser window parameter and table resolution for the polyphase
// filter. Beta of 5.658 gives roughly 60 dB of stopband rejection,
// plenty for an analysis path that only cares about content below
// 1 kHz.
const (
	kaiserBeta    = 5.658
	phaseSteps    = 256
	izeroEpsilon  = 1e-21
	minQuality    = 16
	maxQuality    = 96
	maxRatioRange = 16.0
)

// Resampler converts a mono float32 stream from one sample rate to
// another using a Kaiser-windowed-sinc polyphase filter with linear
// interpolation between phase rows.
//
// Process follows a consume/produce contract: it eats as much input as
// it can and fills as much of the output window as it can, returning
// both counts. The caller loops, re-presenting the remaining input and
// a fresh output window, until the input is drained. Process does no
// allocation and may be called from the audio goroutine.
type Resampler struct {
	step float64 // input samples advanced per output sample
	taps int
	half int

	// table has phaseSteps+1 rows of taps coefficients; row p holds
	// the kernel for fractional phase p/phaseSteps, each row
	// normalized to unit DC gain.
	table [][]float32

	hist []float32 // ring of recent input, len is a power of two
	mask int64

	written int64   // total input samples accepted
	pos     float64 // stream position of the newest tap of the next output
}

// NewResampler builds a converter from inRate to outRate. The quality
// parameter sets the full kernel length in taps at unity ratio (half
// of it on each side of the centre), stretched by the ratio when
// downsampling; the minimal
// setting of 16 is sufficient for sub-kilohertz analysis fidelity.
func NewResampler(inRate, outRate, quality int) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, ErrResamplerRatio
	}
	step := float64(inRate) / float64(outRate)
	if step > maxRatioRange || step < 1/maxRatioRange {
		return nil, ErrResamplerRatio
	}
	if quality < minQuality {
		quality = minQuality
	}
	if quality > maxQuality {
		quality = maxQuality
	}

	// When downsampling the kernel stretches by the ratio so the
	// cutoff lands below the output Nyquist.
	stretch := math.Max(1, step)
	half := int(math.Ceil(float64(quality) / 2 * stretch))
	taps := 2 * half
	cutoff := 0.85 / (2 * stretch) // cycles per input sample

	table := make([][]float32, phaseSteps+1)
	for p := 0; p <= phaseSteps; p++ {
		row := make([]float32, taps)
		frac := float64(p) / phaseSteps
		var sum float64
		for k := 0; k < taps; k++ {
			t := float64(k-half+1) - frac
			row[k] = float32(sinc(2*cutoff*t) * kaiser(t/float64(half)))
			sum += float64(row[k])
		}
		for k := range row {
			row[k] = float32(float64(row[k]) / sum)
		}
		table[p] = row
	}

	histLen := int64(1)
	for histLen < int64(taps)+2 {
		histLen <<= 1
	}

	r := &Resampler{
		step:  step,
		taps:  taps,
		half:  half,
		table: table,
		hist:  make([]float32, histLen),
		mask:  histLen - 1,
	}
	r.Reset()
	return r, nil
}

// Reset clears the filter history and stream position.
func (r *Resampler) Reset() {
	for i := range r.hist {
		r.hist[i] = 0
	}
	r.written = 0
	r.pos = float64(r.taps - 1)
}

// Process consumes samples from in and writes converted samples to
// out, returning how many of each it handled. It stops when either the
// input is exhausted or the output window is full.
func (r *Resampler) Process(in, out []float32) (consumed, produced int) {
	for {
		newest := int64(math.Floor(r.pos))

		// Pull input until the filter window for the next output
		// sample is complete.
		for r.written <= newest && consumed < len(in) {
			r.hist[r.written&r.mask] = in[consumed]
			r.written++
			consumed++
		}
		if r.written <= newest {
			return consumed, produced // starved for input
		}
		if produced == len(out) {
			return consumed, produced // output window full
		}

		frac := (r.pos - float64(newest)) * phaseSteps
		pi := int(frac)
		pf := float32(frac - float64(pi))
		row0 := r.table[pi]
		row1 := r.table[pi+1]

		i0 := newest - int64(r.taps) + 1
		var acc float32
		for k := 0; k < r.taps; k++ {
			c := row0[k] + pf*(row1[k]-row0[k])
			acc += c * r.hist[(i0+int64(k))&r.mask]
		}
		out[produced] = acc
		produced++
		r.pos += r.step
	}
}

// sinc is the normalized sinc function sin(pi x)/(pi x).
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// kaiser evaluates the Kaiser window at t in [-1, 1].
func kaiser(t float64) float64 {
	a := 1 - t*t
	if a < 0 {
		a = 0
	}
	return izero(kaiserBeta*math.Sqrt(a)) / izero(kaiserBeta)
}

// izero is the zeroth-order modified Bessel function of the first
// kind, evaluated by series expansion.
func izero(x float64) float64 {
	sum, term := 1.0, 1.0
	for i := 1; ; i++ {
		t := x / (2 * float64(i))
		term *= t * t
		sum += term
		if term < izeroEpsilon*sum {
			return sum
		}
	}
}
