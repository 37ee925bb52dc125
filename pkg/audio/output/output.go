// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import (
	"context"
	"io"
)

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// NewStream attaches a continuous 16-bit PCM reader to the device
	NewStream(r io.Reader) (Stream, error)

	// PlaySamples plays a finite buffer and blocks until it finishes or ctx ends
	PlaySamples(ctx context.Context, samples []int32) error

	// Close releases output resources
	Close() error
}

// Stream is a playing PCM source on an open output
type Stream interface {
	Play()
	Pause()
	IsPlaying() bool
	BufferedSize() int
	Seek(offset int64, whence int) (int64, error)
	SetVolume(volume float64)
	Close() error
}
