// ABOUTME: Audio encoder package
// ABOUTME: Provides Encoder interface and the WAV container encoder
// Package encode packages PCM into self-contained files.
//
// Captured microphone PCM is wrapped as WAV so every accumulated unit can be
// decoded without the rest of the stream.
//
// Example:
//
//	enc, err := encode.NewWAV(format)
//	unit := enc.Unit(pcm, "recording.wav")
package encode
