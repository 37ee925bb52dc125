// ABOUTME: Media element abstraction driven by the playback engine
// ABOUTME: Defines the element contract and the events it reports
package playback

import "github.com/harperreed/clipchat/internal/catalog"

// EventKind identifies a media element event
type EventKind int

const (
	// EventMetadata reports that duration is known and seeks can be applied
	EventMetadata EventKind = iota
	// EventTimeUpdate is the periodic position tick while playing
	EventTimeUpdate
	// EventSeeked reports that a SetPosition call took effect
	EventSeeked
	EventPlay
	EventPause
	// EventEnded reports that the media ran out
	EventEnded
)

// String returns the event name
func (k EventKind) String() string {
	switch k {
	case EventMetadata:
		return "metadata"
	case EventTimeUpdate:
		return "timeupdate"
	case EventSeeked:
		return "seeked"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is one notification from a media element
type Event struct {
	Kind     EventKind
	Position float64 // seconds
	Duration float64 // seconds, set on EventMetadata
}

// Element is a controllable media resource. Events are delivered in order on
// Events(); every SetPosition must eventually be acknowledged with EventSeeked,
// queued after any ticks reported before the seek. Element methods must not
// call back into the engine.
type Element interface {
	Load(src catalog.MediaSource) error
	Play() error
	Pause() error
	Paused() bool
	SetPosition(seconds float64) error
	SetVolume(volume float64)
	Events() <-chan Event
	Close() error
}
