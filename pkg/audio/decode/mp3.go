// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes complete MP3 payloads (speech replies) to int32 samples
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/harperreed/clipchat/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// ErrEmptyPayload is returned when there is nothing to decode
var ErrEmptyPayload = errors.New("empty mp3 payload")

// MP3Decoder decodes whole MP3 files. go-mp3 always yields 16-bit stereo.
type MP3Decoder struct {
	sampleRate int
}

// NewMP3 creates a new MP3 decoder
func NewMP3() *MP3Decoder {
	return &MP3Decoder{}
}

// Decode converts MP3 bytes to int32 samples
func (d *MP3Decoder) Decode(data []byte) ([]int32, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	d.sampleRate = decoder.SampleRate()
	return audio.SamplesFromPCM16(pcm), nil
}

// SampleRate returns the sample rate of the last decoded payload
func (d *MP3Decoder) SampleRate() int {
	return d.sampleRate
}

// Channels is always 2 for go-mp3 output
func (d *MP3Decoder) Channels() int {
	return 2
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return nil
}
