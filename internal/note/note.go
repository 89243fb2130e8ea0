// Package note maps frequencies to equal-tempered note names for the
// tuner display. The reference frequency of A4 is adjustable; the
// detection core itself never consults it.
package note

import "math"

// names lists the pitch classes from C upward.
var names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

const (
	semitonesPerOctave = 12
	centsPerSemitone   = 100
	a4MIDI             = 69
)

// Nearest returns the closest note to freq in the equal-tempered
// scale tuned so A4 is refFreq, with the deviation from it in cents.
// ok is false when freq carries no pitch.
func Nearest(freq, refFreq float64) (name string, octave int, cents float64, ok bool) {
	if freq <= 0 || refFreq <= 0 {
		return "", 0, 0, false
	}
	semitones := semitonesPerOctave * math.Log2(freq/refFreq)
	nearest := math.Round(semitones)
	midi := a4MIDI + int(nearest)
	if midi < 0 {
		return "", 0, 0, false
	}
	name = names[midi%semitonesPerOctave]
	octave = midi/semitonesPerOctave - 1
	cents = (semitones - nearest) * centsPerSemitone
	return name, octave, cents, true
}

// DBToPower converts a level in dB to a linear amplitude factor.
func DBToPower(db float64) float64 {
	return math.Pow(10, db*0.05)
}
