// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM formats, encoded audio units and sample conversions
package audio

import (
	"encoding/binary"
	"time"
)

const (
	// 16-bit range constants
	MaxInt16 = 32767
	MinInt16 = -32768
)

// Format describes a PCM or encoded audio stream
type Format struct {
	Codec      string // "pcm", "wav", "mp3"
	SampleRate int
	Channels   int
	BitDepth   int
}

// BytesPerSecond returns the raw PCM byte rate for the format
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * (f.BitDepth / 8)
}

// Duration returns the play time of n raw PCM bytes in this format
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(bps) * float64(time.Second))
}

// Unit is a self-contained, independently decodable piece of encoded audio
// (a complete WAV or MP3 file), ready to be handed to a decoder or an API.
type Unit struct {
	Data     []byte
	Format   Format
	Filename string
}

// Empty reports whether the unit carries no audio
func (u Unit) Empty() bool {
	return len(u.Data) == 0
}

// MIMEType returns the content type for the unit's codec
func (u Unit) MIMEType() string {
	switch u.Format.Codec {
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Samples are left-justified in 24-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SamplesFromPCM16 converts little-endian 16-bit PCM bytes to int32 samples
func SamplesFromPCM16(pcm []byte) []int32 {
	samples := make([]int32, len(pcm)/2)
	for i := range samples {
		samples[i] = SampleFromInt16(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return samples
}

// SamplesToPCM16 converts int32 samples to little-endian 16-bit PCM bytes
func SamplesToPCM16(samples []int32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(SampleToInt16(s)))
	}
	return pcm
}
