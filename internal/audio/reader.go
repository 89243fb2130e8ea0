// Package audio provides the tuner's input sources: WAV file
// streaming and live capture from the default input device.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWAV is returned when the input file is not a decodable WAV.
var ErrNotWAV = errors.New("audio: not a valid WAV file")

// Reader streams a WAV file as mono float32 blocks. Multi-channel
// files are downmixed by averaging.
type Reader struct {
	f      *os.File
	dec    *wav.Decoder
	intBuf *goaudio.IntBuffer
	scale  float32
}

// Metadata describes an opened audio file.
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	BitDepth   int
}

// OpenAudioFile opens a WAV file for streaming.
func OpenAudioFile(filename string) (*Reader, *Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, nil, ErrNotWAV
	}

	dur, err := dec.Duration()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	meta := &Metadata{
		Duration:   dur.Seconds(),
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}

	r := &Reader{
		f:     f,
		dec:   dec,
		scale: float32(int(1) << (dec.BitDepth - 1)),
	}
	return r, meta, nil
}

// ReadBlock fills dst with up to len(dst) mono frames and returns how
// many were written. io.EOF signals the end of the file.
func (r *Reader) ReadBlock(dst []float32) (int, error) {
	channels := int(r.dec.NumChans)
	want := len(dst) * channels

	if r.intBuf == nil || len(r.intBuf.Data) != want {
		r.intBuf = &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  int(r.dec.SampleRate),
			},
			Data: make([]int, want),
		}
	}

	n, err := r.dec.PCMBuffer(r.intBuf)
	if err != nil {
		return 0, fmt.Errorf("failed to read samples: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	frames := n / channels
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(r.intBuf.Data[i*channels+c])
		}
		dst[i] = sum / (r.scale * float32(channels))
	}
	return frames, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
