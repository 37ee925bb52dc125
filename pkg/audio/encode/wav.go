// ABOUTME: WAV container encoder
// ABOUTME: Wraps 16-bit PCM in a RIFF/WAVE header so each unit decodes standalone
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/harperreed/clipchat/pkg/audio"
)

const wavHeaderSize = 44

// WAVEncoder produces complete WAV files from PCM
type WAVEncoder struct {
	format audio.Format
}

// NewWAV creates a new WAV encoder
func NewWAV(format audio.Format) (*WAVEncoder, error) {
	if format.Codec != "wav" {
		return nil, fmt.Errorf("invalid codec for WAV encoder: %s", format.Codec)
	}
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("invalid format: %dHz %dch", format.SampleRate, format.Channels)
	}

	return &WAVEncoder{format: format}, nil
}

// Encode converts int32 samples to a WAV file
func (e *WAVEncoder) Encode(samples []int32) ([]byte, error) {
	return e.Wrap(audio.SamplesToPCM16(samples)), nil
}

// Wrap prefixes raw little-endian 16-bit PCM with a WAV header
func (e *WAVEncoder) Wrap(pcm []byte) []byte {
	out := make([]byte, wavHeaderSize+len(pcm))
	blockAlign := e.format.Channels * 2

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(pcm)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:], uint16(e.format.Channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(e.format.SampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(e.format.SampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)

	return out
}

// Unit wraps PCM into an audio.Unit named filename
func (e *WAVEncoder) Unit(pcm []byte, filename string) audio.Unit {
	return audio.Unit{
		Data:     e.Wrap(pcm),
		Format:   e.format,
		Filename: filename,
	}
}

// Close releases resources
func (e *WAVEncoder) Close() error {
	return nil
}
