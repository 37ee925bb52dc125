// ABOUTME: Audio resampling package
// ABOUTME: Provides linear interpolation sample rate conversion
// Package resample converts interleaved PCM between sample rates.
//
// The output device can only be opened once per process, so audio that
// arrives at a different rate (24kHz speech replies, for example) is
// converted to the device rate before playback.
//
// Example:
//
//	out := resample.Convert(samples, 24000, 44100, 2)
package resample
