package pitch

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// maxMaxima caps how many correlation lobes the maxima scan keeps.
	maxMaxima = 10

	// subMaxThreshold selects the first correlation peak within this
	// fraction of the overall maximum, preferring the lowest lag
	// (the fundamental) over octave-up harmonics.
	subMaxThreshold = 0.99

	// maxTrackedFreq is the precision ceiling; estimates above it are
	// reported as no pitch.
	maxTrackedFreq = 999.0
)

// estimator computes a bias-corrected autocorrelation (NSDF style) of
// an analysis frame via FFT and picks the fundamental period from its
// peaks. All buffers and the FFT plan are sized once at construction;
// analyze itself does not allocate.
type estimator struct {
	bufSize int
	fftSize int
	fft     *fourier.FFT
	timeBuf []float64
	coeff   []complex128
	maxima  [maxMaxima]int
}

// newEstimator builds an estimator for frames of bufSize samples. The
// transform length adds half the frame again as zero padding so the
// correlation of interest is free of circular wrap.
func newEstimator(bufSize int) *estimator {
	fftSize := bufSize + (bufSize+1)/2
	return &estimator{
		bufSize: bufSize,
		fftSize: fftSize,
		fft:     fourier.NewFFT(fftSize),
		timeBuf: make([]float64, fftSize),
		coeff:   make([]complex128, fftSize/2+1),
	}
}

// analyze estimates the fundamental frequency of input sampled at
// sampleRate. It returns 0 when no peak qualifies or the estimate
// falls above the precision ceiling.
func (e *estimator) analyze(input []float32, sampleRate float64) float32 {
	// Time buffer: frame followed by zero padding.
	for i := 0; i < e.bufSize; i++ {
		e.timeBuf[i] = float64(input[i])
	}
	for i := e.bufSize; i < e.fftSize; i++ {
		e.timeBuf[i] = 0
	}

	// Autocorrelation: FFT, power spectrum in place, inverse FFT.
	// Both transforms are unnormalized, so the round trip carries a
	// factor of fftSize that the bias correction accounts for.
	e.fft.Coefficients(e.coeff, e.timeBuf)
	for k, c := range e.coeff {
		re, im := real(c), imag(c)
		e.coeff[k] = complex(re*re+im*im, 0)
	}
	e.fft.Sequence(e.timeBuf, e.coeff)

	// NSDF-style normalization. r[0] holds fftSize times the frame
	// energy, so sumSq starts as twice the energy; each lag then
	// drops the two samples that slide out of the overlap.
	n := float64(e.fftSize)
	sumSq := 2 * e.timeBuf[0] / n
	for k := 0; k < e.fftSize-e.bufSize; k++ {
		e.timeBuf[k] = e.timeBuf[k+1] / n
	}

	count := (e.bufSize + 1) / 2
	for k := 0; k < count; k++ {
		head := float64(input[k])
		tail := float64(input[e.bufSize-1-k])
		sumSq -= tail*tail + head*head
		if sumSq > 0 {
			e.timeBuf[k] *= 2 / sumSq
		} else {
			e.timeBuf[k] = 0
		}
	}

	idx := findSubMaximum(e.timeBuf[:count], subMaxThreshold, e.maxima[:0])
	if idx < 0 {
		return 0
	}
	x := parabolaTurningPoint(e.timeBuf[idx-1], e.timeBuf[idx], e.timeBuf[idx+1], float64(idx+1))
	freq := sampleRate / x
	if freq > maxTrackedFreq {
		return 0
	}
	return float32(freq)
}

// findMaxima scans the normalized correlation for the tallest local
// maximum within each positive lobe, appending lobe maxima to dst (at
// most maxLen) and returning them with the index of the tallest
// maximum overall. The initial positive lobe is skipped, with the scan
// cap of (len-1)/3 applying to that first lobe only.
func findMaxima(input []float64, dst []int, maxLen int) ([]int, int) {
	length := len(input)
	pos := 0
	curMaxPos := 0
	overallMaxIndex := 0

	// Walk off the initial positive lobe, then past the first
	// negative region.
	for pos < (length-1)/3 && input[pos] > 0 {
		pos++
	}
	for pos < length-1 && input[pos] <= 0 {
		pos++
	}
	if pos == 0 {
		pos = 1 // can happen if input[0] is NaN
	}

	for pos < length-1 {
		if input[pos] > input[pos-1] && input[pos] >= input[pos+1] {
			if curMaxPos == 0 || input[pos] > input[curMaxPos] {
				curMaxPos = pos
			}
		}
		pos++
		if pos < length-1 && input[pos] <= 0 {
			// Leaving the lobe on a negative zero crossing.
			if curMaxPos > 0 {
				dst = append(dst, curMaxPos)
				if overallMaxIndex == 0 || input[curMaxPos] > input[overallMaxIndex] {
					overallMaxIndex = curMaxPos
				}
				if len(dst) >= maxLen {
					return dst, overallMaxIndex
				}
				curMaxPos = 0
			}
			for pos < length-1 && input[pos] <= 0 {
				pos++
			}
		}
	}
	if curMaxPos > 0 {
		dst = append(dst, curMaxPos)
		if overallMaxIndex == 0 || input[curMaxPos] > input[overallMaxIndex] {
			overallMaxIndex = curMaxPos
		}
	}
	return dst, overallMaxIndex
}

// findSubMaximum returns the first (lowest lag) maximum whose value
// reaches the threshold-adjusted fraction of the overall maximum, or
// -1 when there are no maxima.
func findSubMaximum(input []float64, threshold float64, scratch []int) int {
	maxima, overallMaxIndex := findMaxima(input, scratch, maxMaxima)
	if len(maxima) == 0 {
		return -1
	}
	threshold += (1 - threshold) * (1 - input[overallMaxIndex])
	cutoff := input[overallMaxIndex] * threshold
	for _, i := range maxima {
		if input[i] >= cutoff {
			return i
		}
	}
	return -1
}

// parabolaTurningPoint refines a peak position to sub-sample
// precision by fitting a quadratic through the peak and its
// neighbours.
func parabolaTurningPoint(yPrev, y0, yNext, xOffset float64) float64 {
	yTop := yPrev - yNext
	yBottom := yNext + yPrev - 2*y0
	if yBottom != 0 {
		return xOffset + yTop/(2*yBottom)
	}
	return xOffset
}
