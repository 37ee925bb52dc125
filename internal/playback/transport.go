// ABOUTME: Transport control helpers
// ABOUTME: Progress ratios, timecodes and volume/mute state for the controls
package playback

import (
	"fmt"

	"github.com/harperreed/clipchat/internal/catalog"
)

// Progress returns position/duration in [0,1]; 0 when duration is unknown
func Progress(position, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	r := position / duration
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// FormatTime renders seconds as m:ss
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatRange renders a clip interval as "m:ss - m:ss"
func FormatRange(c catalog.Clip) string {
	return FormatTime(c.StartTime) + " - " + FormatTime(c.EndTime)
}

// Volume tracks level and mute like the player's volume slider
type Volume struct {
	level float64
	muted bool
}

// NewVolume starts at full volume, unmuted
func NewVolume() *Volume {
	return &Volume{level: 1}
}

// Set changes the level (clamped to 0..1). A level of 0 reads as muted.
func (v *Volume) Set(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	v.level = level
	v.muted = level == 0
}

// ToggleMute mutes, or unmutes back to the previous level (0.5 if that was 0)
func (v *Volume) ToggleMute() {
	if v.muted {
		if v.level == 0 {
			v.level = 0.5
		}
		v.muted = false
		return
	}
	v.muted = true
}

// Level returns the slider level
func (v *Volume) Level() float64 {
	return v.level
}

// Muted reports mute state
func (v *Volume) Muted() bool {
	return v.muted
}

// Effective returns the gain to apply to the element
func (v *Volume) Effective() float64 {
	if v.muted {
		return 0
	}
	return v.level
}
