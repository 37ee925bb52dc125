// ABOUTME: Audio output tests
// ABOUTME: Verifies interface conformance and volume handling
package output

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
}

func TestNewOto(t *testing.T) {
	out := NewOto()
	if out == nil {
		t.Fatal("NewOto returned nil")
	}
	if out.SampleRate() != 0 {
		t.Errorf("expected closed output to report rate 0, got %d", out.SampleRate())
	}
}

func TestUnopenedOutputRejectsPlayback(t *testing.T) {
	out := NewOto()

	if err := out.PlaySamples(context.Background(), []int32{1, 2}); err == nil ||
		!strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}

	var r io.Reader = strings.NewReader("")
	if _, err := out.NewStream(r); err == nil {
		t.Error("expected error creating stream on unopened output")
	}
}

func TestVolumeMultiplier(t *testing.T) {
	tests := []struct {
		volume   int
		muted    bool
		expected float64
	}{
		{100, false, 1.0},
		{50, false, 0.5},
		{0, false, 0.0},
		{80, true, 0.0}, // Muted overrides volume
	}

	for _, tt := range tests {
		result := getVolumeMultiplier(tt.volume, tt.muted)
		if result != tt.expected {
			t.Errorf("volume=%d, muted=%v: expected %f, got %f",
				tt.volume, tt.muted, tt.expected, result)
		}
	}
}

func TestApplyVolume(t *testing.T) {
	samples := []int32{1000, -1000, 500, -500}

	result := applyVolume(samples, 50, false)

	if result[0] != 500 {
		t.Errorf("expected 500, got %d", result[0])
	}
	if result[1] != -500 {
		t.Errorf("expected -500, got %d", result[1])
	}
}

func TestSetVolumeClamps(t *testing.T) {
	out := NewOto()

	out.SetVolume(150)
	if out.volume != 100 {
		t.Errorf("expected volume clamped to 100, got %d", out.volume)
	}

	out.SetVolume(-5)
	if out.volume != 0 {
		t.Errorf("expected volume clamped to 0, got %d", out.volume)
	}
}
