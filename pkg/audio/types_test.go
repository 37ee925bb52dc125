// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion, unit helpers and format durations
package audio

import (
	"testing"
	"time"
)

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestPCM16RoundTrip(t *testing.T) {
	pcm := []byte{0x00, 0x00, 0x64, 0x00, 0x9c, 0xff, 0xff, 0x7f, 0x00, 0x80}

	samples := SamplesFromPCM16(pcm)
	if len(samples) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(samples))
	}
	if samples[1] != 100<<8 {
		t.Errorf("expected %d, got %d", 100<<8, samples[1])
	}
	if samples[2] != -100<<8 {
		t.Errorf("expected %d, got %d", -100<<8, samples[2])
	}

	back := SamplesToPCM16(samples)
	if string(back) != string(pcm) {
		t.Errorf("round-trip mismatch: %v -> %v", pcm, back)
	}
}

func TestFormatDuration(t *testing.T) {
	f := Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 16}

	if f.BytesPerSecond() != 32000 {
		t.Errorf("expected 32000 bytes/s, got %d", f.BytesPerSecond())
	}
	if d := f.Duration(16000); d != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", d)
	}
	if d := (Format{}).Duration(100); d != 0 {
		t.Errorf("expected zero duration for empty format, got %v", d)
	}
}

func TestUnitMIMEType(t *testing.T) {
	tests := []struct {
		codec    string
		expected string
	}{
		{"wav", "audio/wav"},
		{"mp3", "audio/mpeg"},
		{"opus", "application/octet-stream"},
	}

	for _, tt := range tests {
		u := Unit{Format: Format{Codec: tt.codec}}
		if u.MIMEType() != tt.expected {
			t.Errorf("codec %s: expected %s, got %s", tt.codec, tt.expected, u.MIMEType())
		}
	}

	if !(Unit{}).Empty() {
		t.Error("expected zero unit to be empty")
	}
}
