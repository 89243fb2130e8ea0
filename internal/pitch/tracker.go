package pitch

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/brummer10/StompTuner/internal/dsp"
)

// Analysis constants. The analysis rate is the declared fixed rate
// divided by the downsampling factor, giving 20500 Hz.
const (
	// FFTSize is the capacity of the analysis ring buffer and the
	// default analysis window.
	FFTSize = 2048

	// DownSample is the downsampling factor applied to the fixed rate.
	DownSample = 2

	// FixedSampleRate is the declared base rate of the analysis path.
	FixedSampleRate = 41000

	// SignalThresholdOn and SignalThresholdOff bound the gate
	// hysteresis in normal mode.
	SignalThresholdOn  = 0.001
	SignalThresholdOff = 0.0009

	// TrackerPeriod is the nominal wall-clock interval between
	// analysis passes, in seconds.
	TrackerPeriod = 0.1

	// resamplerQuality is the minimal conversion quality; the
	// analysis only needs fidelity below 1 kHz.
	resamplerQuality = 16

	// concertA is the fixed pitch reference of the semitone scale
	// reported by EstimatedNote.
	concertA = 440.0

	// noNoteSentinel is reported by EstimatedNote when there is no
	// pitch to name.
	noNoteSentinel = 1000.0
)

// Tracker estimates the fundamental frequency of a mono audio stream.
//
// The audio goroutine feeds host-rate blocks through Add, which
// resamples them into the ring buffer and, roughly every tracker
// period, snapshots a frame and wakes the worker goroutine. The worker
// gates on signal level, runs the estimator, and invokes the
// freq-changed callback (on the worker goroutine) whenever the
// estimate moves. Add never blocks, locks, or allocates.
type Tracker struct {
	onFreqChanged func()
	err           error

	tick       int
	resamp     *dsp.Resampler
	sampleRate int // internal analysis rate

	ring    *ring
	input   []float32 // worker's private frame, filled by snapshot
	bufSize int
	est     *estimator
	gate    *gate

	freqBits   atomic.Uint32 // float32 bits; negative = no estimate yet
	periodBits atomic.Uint64 // float64 bits of the tracker period
	busy       atomic.Bool

	worker worker
}

// NewTracker creates a tracker and starts its worker goroutine. The
// callback fires on the worker goroutine whenever the estimated
// frequency changes; read the new value with EstimatedFreq. Call Init
// before feeding audio and Stop when done.
func NewTracker(onFreqChanged func()) *Tracker {
	t := &Tracker{
		onFreqChanged: onFreqChanged,
		ring:          newRing(FFTSize),
		input:         make([]float32, FFTSize),
		gate:          newGate(),
	}
	t.storeFreq(-1)
	t.setPeriod(TrackerPeriod)
	t.worker.start(t)
	return t
}

// Init configures the tracker for a host sample rate with the full
// analysis window.
func (t *Tracker) Init(sampleRate int) error {
	return t.SetParameters(sampleRate, FFTSize)
}

// SetParameters rebuilds the resampler for the host rate and, when the
// analysis window changes, the FFT plan and scratch buffers. It waits
// for any in-flight analysis pass to finish before swapping buffers,
// so the caller must have stopped feeding Add first. A returned error
// is latched: the tracker stays inert until a later call succeeds.
func (t *Tracker) SetParameters(sampleRate, bufSize int) error {
	if bufSize > FFTSize {
		t.err = fmt.Errorf("pitch: analysis window %d exceeds ring capacity %d", bufSize, FFTSize)
		return t.err
	}

	// Let an in-flight pass drain; no new triggers can arrive while
	// the caller is inside a reconfiguration. A stopped worker can
	// leave a stale trigger behind, so only wait on a live one.
	for t.busy.Load() && t.worker.isRunning() {
		runtime.Gosched()
	}

	t.sampleRate = FixedSampleRate / DownSample
	resamp, err := dsp.NewResampler(sampleRate, t.sampleRate, resamplerQuality)
	if err != nil {
		t.err = err
		return err
	}
	t.resamp = resamp

	if t.bufSize != bufSize {
		t.bufSize = bufSize
		t.est = newEstimator(bufSize)
	}
	t.err = nil
	return nil
}

// Err reports the latched configuration error, if any.
func (t *Tracker) Err() error {
	return t.err
}

// Reset rewinds the tracker clock, ring buffer, resampler state and
// published frequency, without touching the worker.
func (t *Tracker) Reset() {
	t.tick = 0
	t.ring.reset()
	if t.resamp != nil {
		t.resamp.Reset()
	}
	t.storeFreq(-1)
}

// Stop shuts down the worker goroutine. Safe to call repeatedly; the
// tracker can be revived with Start.
func (t *Tracker) Stop() {
	t.worker.stop()
}

// Start relaunches the worker after a Stop.
func (t *Tracker) Start() {
	t.worker.start(t)
}

// Running reports whether the worker goroutine is alive.
func (t *Tracker) Running() bool {
	return t.worker.isRunning()
}

// Add feeds one block of host-rate samples. It resamples into the
// ring buffer and schedules an analysis pass once enough audio has
// accumulated since the last one. If the worker is still busy the
// trigger is dropped; the clock is not rewound, so the next block
// retries.
func (t *Tracker) Add(input []float32) {
	if t.err != nil || t.resamp == nil {
		return
	}

	in := input
	for {
		window := t.ring.buf[t.ring.index:]
		consumed, produced := t.resamp.Process(in, window)
		in = in[consumed:]
		if produced == 0 {
			return // all soaked up by the filter
		}
		t.ring.index = (t.ring.index + produced) % FFTSize
		if len(in) == 0 {
			break
		}
	}

	t.tick++
	if float64(t.tick*len(input)) >= float64(t.sampleRate*DownSample)*t.period() {
		if t.busy.Load() {
			return
		}
		t.busy.Store(true)
		t.tick = 0
		t.ring.snapshot(t.input, t.bufSize)
		t.worker.notify()
	}
}

// runAnalysis is one worker pass: gate on mean absolute level, then
// estimate and publish.
func (t *Tracker) runAnalysis() {
	var sum float64
	for _, v := range t.input[:t.bufSize] {
		sum += math.Abs(float64(v))
	}
	if !t.gate.update(sum / float64(t.bufSize)) {
		if t.loadFreq() != 0 {
			t.storeFreq(0)
			t.onFreqChanged()
		}
		return
	}

	freq := t.est.analyze(t.input[:t.bufSize], float64(t.sampleRate))
	if freq != t.loadFreq() {
		t.storeFreq(freq)
		t.onFreqChanged()
	}
}

// EstimatedFreq returns the latest frequency estimate in Hz, or 0
// when no pitch has been detected.
func (t *Tracker) EstimatedFreq() float32 {
	f := t.loadFreq()
	if f < 0 {
		return 0
	}
	return f
}

// EstimatedNote returns the estimate as a semitone offset from
// concert A (440 Hz), or 1000 when there is no pitch.
func (t *Tracker) EstimatedNote() float32 {
	f := t.loadFreq()
	if f <= 0 {
		return noNoteSentinel
	}
	return float32(12 * math.Log2(float64(f)/concertA))
}

// SetThreshold sets the gate's on threshold; the off threshold
// follows at 90%.
func (t *Tracker) SetThreshold(v float64) {
	t.gate.setThreshold(v)
}

// SetFastNoteDetection trades stability for reaction time: gate
// thresholds are scaled up fivefold and the tracker period drops to a
// tenth.
func (t *Tracker) SetFastNoteDetection(fast bool) {
	t.gate.setFastNoteDetection(fast)
	if fast {
		t.setPeriod(TrackerPeriod / 10)
	} else {
		t.setPeriod(TrackerPeriod)
	}
}

func (t *Tracker) storeFreq(f float32) {
	t.freqBits.Store(math.Float32bits(f))
}

func (t *Tracker) loadFreq() float32 {
	return math.Float32frombits(t.freqBits.Load())
}

func (t *Tracker) setPeriod(p float64) {
	t.periodBits.Store(math.Float64bits(p))
}

func (t *Tracker) period() float64 {
	return math.Float64frombits(t.periodBits.Load())
}
