// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Unit types and sample conversion functions
// Package audio provides the audio types shared by capture, playback and the AI gateway.
//
//   - Format: describes a PCM or encoded stream (codec, sample rate, channels, bit depth)
//   - Unit: a complete encoded file (WAV or MP3) that can be decoded on its own
//
// Samples move between packages as int32 values left-justified in 24-bit range,
// so 16-bit device data converts with SampleFromInt16 / SampleToInt16.
//
// Example:
//
//	samples := audio.SamplesFromPCM16(pcm)
//	pcm = audio.SamplesToPCM16(samples)
package audio
