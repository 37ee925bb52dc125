// ABOUTME: Audio input package for microphone capture
// ABOUTME: Provides the malgo (miniaudio) capture implementation
// Package input acquires microphones.
//
// A device is held exclusively between Open and Close. Callers must Close
// the returned handle to give the microphone back to the platform.
//
// Example:
//
//	mic := input.NewMalgo()
//	h, err := mic.Open(format, func(pcm []byte) { ... })
//	defer h.Close()
package input
