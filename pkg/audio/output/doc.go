// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface and the oto implementation
// Package output provides audio playback.
//
// A single oto context is opened per process. Continuous sources (clip
// audio) attach as a Stream; finite buffers (speech replies) use PlaySamples.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(44100, 2)
//	err = out.PlaySamples(ctx, samples)
package output
