package plugin

// bypassRamp cross-fades the output against the dry input when bypass
// toggles, one sample of fade per frame. At most one of needsDown and
// needsUp is set at a time; while a ramp runs, the opposite counter
// mirrors it so a mid-ramp reverse resumes from the current fade
// level.
type bypassRamp struct {
	step      float64
	down      float64
	up        float64
	needsDown bool
	needsUp   bool
	bypassed  bool
}

// init derives the ramp length from the host rate and restores the
// idle state.
func (b *bypassRamp) init(hostRate float64) {
	b.step = 32 * 256 * hostRate / 48000
	b.down = b.step
	b.up = 0
	b.needsDown = false
	b.needsUp = false
}

// toggle reacts to a change of the bypass parameter.
func (b *bypassRamp) toggle(bypass bool) {
	if bypass {
		b.needsDown = true
		b.needsUp = false
	} else {
		b.needsDown = false
		b.needsUp = true
		b.bypassed = false
	}
}

// active reports whether a ramp is in progress, meaning the caller
// must keep a dry copy of the block.
func (b *bypassRamp) active() bool {
	return b.needsDown || b.needsUp
}

// apply runs the ramp over one block, mixing out against dry in
// place. It reports whether the ramp-down completed on this block, at
// which point the caller publishes a zero frequency.
func (b *bypassRamp) apply(out, dry []float32) (completedBypass bool) {
	switch {
	case b.needsDown:
		for i := range out {
			if b.down >= 0 {
				b.down--
			}
			fade := max(0, b.down) / b.step
			out[i] = out[i]*float32(fade) + dry[i]*float32(1-fade)
		}
		if b.down <= 0 {
			b.needsDown = false
			b.bypassed = true
			b.down = b.step
			b.up = 0
			return true
		}
		b.up = b.down

	case b.needsUp:
		for i := range out {
			if b.up < b.step {
				b.up++
			}
			fade := min(b.step, b.up) / b.step
			out[i] = out[i]*float32(fade) + dry[i]*float32(1-fade)
		}
		if b.up >= b.step {
			b.needsUp = false
			b.up = 0
			b.down = b.step
		} else {
			b.down = b.up
		}
	}
	return false
}
