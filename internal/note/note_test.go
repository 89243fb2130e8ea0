package note

import (
	"math"
	"testing"
)

func TestNearest(t *testing.T) {
	t.Run("standard pitches at A440", func(t *testing.T) {
		cases := []struct {
			freq   float64
			name   string
			octave int
		}{
			{440.0, "A", 4},
			{82.41, "E", 2},  // low E string
			{110.0, "A", 2},
			{146.83, "D", 3},
			{196.0, "G", 3},
			{246.94, "B", 3},
			{329.63, "E", 4}, // high E string
			{261.63, "C", 4}, // middle C
		}
		for _, c := range cases {
			name, octave, cents, ok := Nearest(c.freq, 440)
			if !ok {
				t.Fatalf("Nearest(%g) not ok", c.freq)
			}
			if name != c.name || octave != c.octave {
				t.Errorf("Nearest(%g) = %s%d, want %s%d", c.freq, name, octave, c.name, c.octave)
			}
			if math.Abs(cents) > 1 {
				t.Errorf("Nearest(%g) cents = %f, want near 0", c.freq, cents)
			}
		}
	})

	t.Run("cents deviation", func(t *testing.T) {
		_, _, cents, ok := Nearest(445, 440)
		if !ok {
			t.Fatal("not ok")
		}
		want := 1200 * math.Log2(445.0/440.0)
		if math.Abs(cents-want) > 0.01 {
			t.Errorf("cents = %f, want %f", cents, want)
		}
	})

	t.Run("alternate reference tuning", func(t *testing.T) {
		name, octave, cents, ok := Nearest(432, 432)
		if !ok || name != "A" || octave != 4 {
			t.Errorf("Nearest(432, 432) = %s%d ok=%v, want A4", name, octave, ok)
		}
		if math.Abs(cents) > 1e-9 {
			t.Errorf("cents = %f, want 0", cents)
		}
	})

	t.Run("no pitch", func(t *testing.T) {
		if _, _, _, ok := Nearest(0, 440); ok {
			t.Error("Nearest(0) ok, want not ok")
		}
		if _, _, _, ok := Nearest(-1, 440); ok {
			t.Error("Nearest(-1) ok, want not ok")
		}
	})
}

func TestDBToPower(t *testing.T) {
	cases := []struct{ db, want float64 }{
		{0, 1},
		{-20, 0.1},
		{-40, 0.01},
		{6, 1.9952623},
	}
	for _, c := range cases {
		if got := DBToPower(c.db); math.Abs(got-c.want) > 1e-6 {
			t.Errorf("DBToPower(%g) = %f, want %f", c.db, got, c.want)
		}
	}
}
