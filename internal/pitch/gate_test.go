package pitch

import "testing"

func TestGate(t *testing.T) {
	t.Run("starts closed", func(t *testing.T) {
		g := newGate()
		if g.update(SignalThresholdOn / 2) {
			t.Error("gate opened below the on threshold")
		}
	})

	t.Run("hysteresis", func(t *testing.T) {
		g := newGate()
		if !g.update(SignalThresholdOn) {
			t.Fatal("gate stayed closed at the on threshold")
		}
		// Between off and on: an open gate stays open.
		if !g.update(SignalThresholdOff) {
			t.Error("open gate closed above the off threshold")
		}
		if g.update(SignalThresholdOff / 2) {
			t.Error("gate stayed open below the off threshold")
		}
		// Between off and on again: a closed gate stays closed.
		if g.update(SignalThresholdOff) {
			t.Error("closed gate opened below the on threshold")
		}
	})

	t.Run("fast note detection scales thresholds", func(t *testing.T) {
		g := newGate()
		g.setFastNoteDetection(true)
		if g.update(SignalThresholdOn) {
			t.Error("fast mode gate opened at the normal threshold")
		}
		if !g.update(SignalThresholdOn * 5) {
			t.Error("fast mode gate stayed closed at the scaled threshold")
		}
		g.setFastNoteDetection(false)
		g.update(0) // close
		if !g.update(SignalThresholdOn) {
			t.Error("normal threshold not restored")
		}
	})

	t.Run("explicit threshold sets off at 90 percent", func(t *testing.T) {
		g := newGate()
		g.setThreshold(0.01)
		if g.update(0.009) {
			t.Error("gate opened below the explicit threshold")
		}
		if !g.update(0.01) {
			t.Fatal("gate stayed closed at the explicit threshold")
		}
		if !g.update(0.0091) {
			t.Error("open gate closed above 90 percent of the threshold")
		}
		if g.update(0.0089) {
			t.Error("gate stayed open below 90 percent of the threshold")
		}
	})
}
