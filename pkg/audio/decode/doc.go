// ABOUTME: Audio decoder package
// ABOUTME: Provides Decoder interface and the MP3 implementation
// Package decode turns encoded audio payloads into PCM samples.
//
// Speech replies arrive as complete MP3 files, so decoders work on whole
// payloads rather than streamed frames.
//
// Example:
//
//	d := decode.NewMP3()
//	samples, err := d.Decode(mp3Bytes)
//	rate := d.SampleRate()
package decode
