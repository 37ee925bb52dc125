// ABOUTME: Unit tests for WAV encoder
// ABOUTME: Tests header layout, validation and sample encoding
package encode

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/harperreed/clipchat/pkg/audio"
)

func speechFormat() audio.Format {
	return audio.Format{Codec: "wav", SampleRate: 16000, Channels: 1, BitDepth: 16}
}

func TestNewWAV(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid mono 16-bit",
			format:  speechFormat(),
			wantErr: false,
		},
		{
			name:        "invalid codec",
			format:      audio.Format{Codec: "mp3", SampleRate: 16000, Channels: 1, BitDepth: 16},
			wantErr:     true,
			errContains: "invalid codec",
		},
		{
			name:        "unsupported bit depth",
			format:      audio.Format{Codec: "wav", SampleRate: 16000, Channels: 1, BitDepth: 24},
			wantErr:     true,
			errContains: "unsupported bit depth",
		},
		{
			name:        "missing sample rate",
			format:      audio.Format{Codec: "wav", Channels: 1, BitDepth: 16},
			wantErr:     true,
			errContains: "invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewWAV(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if enc == nil {
				t.Fatal("expected encoder, got nil")
			}
		})
	}
}

func TestWAVHeader(t *testing.T) {
	enc, err := NewWAV(speechFormat())
	if err != nil {
		t.Fatalf("NewWAV failed: %v", err)
	}

	pcm := make([]byte, 3200)
	out := enc.Wrap(pcm)

	if len(out) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(out))
	}
	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" || string(out[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q %q %q", out[0:4], out[8:12], out[36:40])
	}
	if got := binary.LittleEndian.Uint32(out[4:]); got != uint32(36+len(pcm)) {
		t.Errorf("expected riff size %d, got %d", 36+len(pcm), got)
	}
	if got := binary.LittleEndian.Uint32(out[24:]); got != 16000 {
		t.Errorf("expected sample rate 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(out[28:]); got != 32000 {
		t.Errorf("expected byte rate 32000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(out[40:]); got != uint32(len(pcm)) {
		t.Errorf("expected data size %d, got %d", len(pcm), got)
	}
}

func TestWAVEncodeSamples(t *testing.T) {
	enc, err := NewWAV(speechFormat())
	if err != nil {
		t.Fatalf("NewWAV failed: %v", err)
	}

	out, err := enc.Encode([]int32{audio.SampleFromInt16(1000), audio.SampleFromInt16(-1000)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if got := int16(binary.LittleEndian.Uint16(out[44:])); got != 1000 {
		t.Errorf("expected first sample 1000, got %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(out[46:])); got != -1000 {
		t.Errorf("expected second sample -1000, got %d", got)
	}
}

func TestWAVUnit(t *testing.T) {
	enc, _ := NewWAV(speechFormat())

	unit := enc.Unit([]byte{1, 2, 3, 4}, "recording.wav")
	if unit.Filename != "recording.wav" {
		t.Errorf("expected filename recording.wav, got %s", unit.Filename)
	}
	if unit.MIMEType() != "audio/wav" {
		t.Errorf("expected audio/wav, got %s", unit.MIMEType())
	}
	if len(unit.Data) != 48 {
		t.Errorf("expected 48 bytes, got %d", len(unit.Data))
	}
}
