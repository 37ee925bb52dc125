// ABOUTME: Tests for microphone capture
// ABOUTME: Verifies format validation before any device is touched
package input

import (
	"strings"
	"testing"

	"github.com/harperreed/clipchat/pkg/audio"
)

func TestOpenRejectsBitDepth(t *testing.T) {
	mic := NewMalgo()

	_, err := mic.Open(audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 24}, func([]byte) {})
	if err == nil {
		t.Fatal("expected error for 24-bit capture, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported bit depth") {
		t.Errorf("unexpected error: %v", err)
	}
}
