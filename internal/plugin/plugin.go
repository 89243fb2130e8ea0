// Package plugin is the host-facing facade of the tuner: it owns the
// filter chain, the pitch tracker and the bypass ramp, and exposes
// block processing plus a small indexed parameter surface.
package plugin

import (
	"math"
	"sync/atomic"

	"github.com/brummer10/StompTuner/internal/dsp"
	"github.com/brummer10/StompTuner/internal/pitch"
)

// Parameter indices, in host order.
const (
	ParamBypass = iota
	ParamFreq
	ParamRefFreq
	ParamCount
)

// ParameterInfo describes one host-visible parameter.
type ParameterInfo struct {
	Name    string
	Symbol  string
	Min     float32
	Max     float32
	Def     float32
	Output  bool
	Boolean bool
}

var parameters = [ParamCount]ParameterInfo{
	ParamBypass:  {Name: "Bypass", Symbol: "dpf_bypass", Min: 0, Max: 1, Def: 0, Boolean: true},
	ParamFreq:    {Name: "Frequency", Symbol: "FREQ", Min: 0, Max: 1000, Output: true},
	ParamRefFreq: {Name: "Reference Frequency", Symbol: "REFFREQ", Min: 432, Max: 452, Def: 440},
}

// Info returns the description of the parameter at index.
func Info(index int) ParameterInfo {
	return parameters[index]
}

// Plugin wires the tuner components together. Process runs on the
// audio goroutine; the parameter surface may be touched from any
// goroutine (each slot is an independent atomic), and the tracker's
// worker publishes ParamFreq through the freq-changed callback.
type Plugin struct {
	params  [ParamCount]atomic.Uint32
	lhcut   *dsp.LowHighCut
	tracker *pitch.Tracker

	sampleRate float64
	srChanged  atomic.Bool

	ramp   bypassRamp
	bypass uint32 // latched bypass state; 2 forces the first comparison to act

	buf [pitch.FFTSize]float32 // working copy fed to filter and tracker
	dry [pitch.FFTSize]float32 // unprocessed copy kept while ramping
}

// New creates the plugin with default parameter values and a running
// (but not yet configured) tracker. Call Init before processing and
// Close when done.
func New() *Plugin {
	p := &Plugin{bypass: 2}
	p.tracker = pitch.NewTracker(p.publishFreq)
	for i := range parameters {
		p.SetParameterValue(i, parameters[i].Def)
	}
	return p
}

// publishFreq is the tracker's freq-changed callback; it runs on the
// worker goroutine.
func (p *Plugin) publishFreq() {
	p.SetOutputParameterValue(ParamFreq, p.tracker.EstimatedFreq())
}

// Init configures every component for the host sample rate. On error
// the plugin stays usable as a dry pass-through: Process keeps moving
// audio but the tracker is never triggered.
func (p *Plugin) Init(sampleRate float64) error {
	p.sampleRate = sampleRate
	p.lhcut = dsp.NewLowHighCut(sampleRate)
	p.Activate()
	return p.tracker.Init(int(sampleRate))
}

// Activate computes the bypass ramp state for the current rate.
func (p *Plugin) Activate() {
	p.ramp.init(p.sampleRate)
}

// SampleRateChanged reinitializes the filters and the analysis path
// for a new host rate. Process calls overlapping the swap degrade to
// dry pass-through. Calling it twice with the same rate is idempotent.
func (p *Plugin) SampleRateChanged(sampleRate float64) error {
	p.srChanged.Store(true)
	defer p.srChanged.Store(false)

	p.sampleRate = sampleRate
	p.lhcut.Init(sampleRate)
	p.tracker.Reset()
	err := p.tracker.Init(int(sampleRate))
	p.Activate()
	return err
}

// Tracker exposes the pitch tracker for control-surface tweaks
// (thresholds, fast-note mode).
func (p *Plugin) Tracker() *pitch.Tracker {
	return p.tracker
}

// Close stops the tracker's worker goroutine.
func (p *Plugin) Close() {
	p.tracker.Stop()
}

// Process handles one block: passes input through to output, feeds
// the conditioned working copy to the tracker, and applies the bypass
// ramp. input and output may alias; their length must not exceed the
// analysis window.
func (p *Plugin) Process(input, output []float32) {
	frames := len(input)
	if frames == 0 {
		return
	}
	if p.srChanged.Load() {
		copy(output, input) // dry pass-through during the rate swap
		return
	}
	if &output[0] != &input[0] {
		copy(output, input)
	}

	buf := p.buf[:frames]
	copy(buf, input)

	if bypassNow := uint32(p.GetParameterValue(ParamBypass)); p.bypass != bypassNow {
		p.bypass = bypassNow
		p.ramp.toggle(bypassNow != 0)
	}

	var dry []float32
	if p.ramp.active() {
		dry = p.dry[:frames]
		copy(dry, input)
	}

	if !p.ramp.bypassed {
		p.lhcut.Compute(buf)
		p.tracker.Add(buf)
	}

	if p.ramp.apply(output, dry) {
		p.SetOutputParameterValue(ParamFreq, 0)
	}
}

// GetParameterValue returns the current value of a parameter slot.
func (p *Plugin) GetParameterValue(index int) float32 {
	if index < 0 || index >= ParamCount {
		return 0
	}
	return math.Float32frombits(p.params[index].Load())
}

// SetParameterValue stores a parameter value from the host.
func (p *Plugin) SetParameterValue(index int, value float32) {
	if index < 0 || index >= ParamCount {
		return
	}
	p.params[index].Store(math.Float32bits(value))
}

// SetOutputParameterValue publishes an output parameter. It is called
// from the worker goroutine when the estimate changes and from the
// audio goroutine at the moment a bypass completes.
func (p *Plugin) SetOutputParameterValue(index int, value float32) {
	p.SetParameterValue(index, value)
}
