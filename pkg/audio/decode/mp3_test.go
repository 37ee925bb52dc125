// ABOUTME: Tests for MP3 decoder
// ABOUTME: Tests error handling for empty and malformed payloads
package decode

import (
	"errors"
	"testing"
)

func TestMP3ImplementsDecoder(t *testing.T) {
	var _ Decoder = (*MP3Decoder)(nil)
}

func TestMP3DecodeEmpty(t *testing.T) {
	d := NewMP3()

	_, err := d.Decode(nil)
	if !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestMP3DecodeGarbage(t *testing.T) {
	d := NewMP3()

	_, err := d.Decode([]byte("definitely not an mp3 stream"))
	if err == nil {
		t.Fatal("expected error decoding garbage, got nil")
	}

	if d.SampleRate() != 0 {
		t.Errorf("expected sample rate to stay 0 after failure, got %d", d.SampleRate())
	}
}

func TestMP3Channels(t *testing.T) {
	if NewMP3().Channels() != 2 {
		t.Error("expected mp3 decoder to report stereo output")
	}
}
