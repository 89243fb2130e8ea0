package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Capture delivers live mono float32 blocks from the default input
// device. The callback runs on portaudio's stream goroutine and must
// follow the same discipline as an audio-thread process call.
type Capture struct {
	stream     *portaudio.Stream
	sampleRate float64
}

// NewCapture opens the default input device. The callback receives
// blocks of blockSize frames until Close is called.
func NewCapture(blockSize int, callback func(block []float32)) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("no default input device: %w", err)
	}

	c := &Capture{sampleRate: dev.DefaultSampleRate}
	stream, err := portaudio.OpenDefaultStream(1, 0, c.sampleRate, blockSize, func(in []float32) {
		callback(in)
	})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	c.stream = stream
	return c, nil
}

// SampleRate reports the device rate the stream was opened at.
func (c *Capture) SampleRate() float64 {
	return c.sampleRate
}

// Start begins delivering blocks to the callback.
func (c *Capture) Start() error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	return nil
}

// Close stops the stream and releases portaudio.
func (c *Capture) Close() error {
	err := c.stream.Stop()
	if cerr := c.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
