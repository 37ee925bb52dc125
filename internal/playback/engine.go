// ABOUTME: Clip-bounded playback engine
// ABOUTME: Clamps seeks to the active clip and auto-advances through the catalog
package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/harperreed/clipchat/internal/catalog"
)

// ErrNoElement is returned when a direct source is loaded without an element
var ErrNoElement = errors.New("no media element for direct source")

// State is a snapshot of playback
type State struct {
	Bound       bool
	Kind        catalog.SourceKind
	Position    float64
	Duration    float64
	Playing     bool
	ActiveClip  *catalog.Clip
	FineGrained bool   // false for embedded sources: no seek/play/pause
	EmbedURL    string // current embed address for embedded sources
}

// ActiveClipID returns the active clip id or ""
func (s State) ActiveClipID() string {
	if s.ActiveClip == nil {
		return ""
	}
	return s.ActiveClip.ID
}

// Config holds engine configuration
type Config struct {
	// EmbedFallbackDuration is reported as duration for embedded sources (seconds)
	EmbedFallbackDuration float64
}

// Engine owns one media element and keeps playback inside the active clip.
// All entry points serialize on one mutex, so a clip-end tick and a user
// selection are applied in whichever order they arrive.
type Engine struct {
	mu      sync.Mutex
	config  Config
	element Element
	embed   *Embed

	source        catalog.MediaSource
	clips         []catalog.Clip
	bound         bool
	metadataReady bool
	pendingSeek   *float64
	seeksInFlight int
	state         State

	listenersMu sync.RWMutex
	listeners   []func(State)
}

// NewEngine creates an engine around element. element may be nil when only
// embedded sources will be loaded.
func NewEngine(element Element, config Config) *Engine {
	if config.EmbedFallbackDuration <= 0 {
		config.EmbedFallbackDuration = 25
	}
	return &Engine{
		config:  config,
		element: element,
	}
}

// OnStateChange registers a listener called after every state change.
// Listeners run outside the engine lock and may call State().
func (e *Engine) OnStateChange(fn func(State)) {
	e.listenersMu.Lock()
	e.listeners = append(e.listeners, fn)
	e.listenersMu.Unlock()
}

// LoadSource binds the engine to a source and its clips. With initial set, the
// clip is primed and its start is seeked to once metadata arrives.
func (e *Engine) LoadSource(src catalog.MediaSource, clips []catalog.Clip, initial *catalog.Clip) error {
	e.mu.Lock()

	e.source = src
	e.clips = append([]catalog.Clip(nil), clips...)
	e.bound = false
	e.embed = nil
	e.metadataReady = false
	e.pendingSeek = nil
	e.seeksInFlight = 0
	e.state = State{Kind: src.Kind}

	switch src.Kind {
	case catalog.KindEmbedded:
		embed, err := NewEmbed(src.URI)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		e.embed = embed
		e.bound = true
		e.metadataReady = true
		e.state.Duration = e.config.EmbedFallbackDuration
		e.state.EmbedURL = embed.URLAt(0, false)
		if initial != nil {
			clip := *initial
			e.state.ActiveClip = &clip
			e.state.Position = clip.StartTime
			e.state.EmbedURL = embed.URLAt(clip.StartTime, false)
		}
		log.Printf("Embedded source bound: %s (no auto-advance)", src.URI)

	default:
		if e.element == nil {
			e.mu.Unlock()
			return ErrNoElement
		}
		if err := e.element.Load(src); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("failed to load media: %w", err)
		}
		e.bound = true
		e.state.FineGrained = true
		if initial != nil {
			clip := *initial
			e.state.ActiveClip = &clip
			start := clip.StartTime
			e.pendingSeek = &start
			e.state.Position = start
		}
		log.Printf("Media source bound: %s", src.URI)
	}

	e.state.Bound = true
	st := e.snapshot()
	e.mu.Unlock()

	e.notify(st)
	return nil
}

// TogglePlayPause starts playback at rest and pauses while playing.
// Silently does nothing without a bound source.
func (e *Engine) TogglePlayPause() {
	e.mu.Lock()

	if !e.bound {
		e.mu.Unlock()
		return
	}
	if e.embed != nil {
		e.mu.Unlock()
		log.Printf("Play/pause unavailable for embedded source")
		return
	}

	if e.element.Paused() {
		if err := e.element.Play(); err != nil {
			log.Printf("Error playing media: %v", err)
		} else {
			e.state.Playing = true
		}
	} else {
		if err := e.element.Pause(); err != nil {
			log.Printf("Error pausing media: %v", err)
		}
		e.state.Playing = false
	}

	st := e.snapshot()
	e.mu.Unlock()
	e.notify(st)
}

// Seek moves to target seconds, clamped to the active clip or the media.
// Position updates immediately and is reconciled by the next tick.
func (e *Engine) Seek(target float64) {
	e.mu.Lock()

	if !e.bound {
		e.mu.Unlock()
		return
	}
	if e.embed != nil {
		e.mu.Unlock()
		log.Printf("Seek unavailable for embedded source")
		return
	}

	e.seekLocked(target)

	st := e.snapshot()
	e.mu.Unlock()
	e.notify(st)
}

// SeekRatio seeks to ratio of the media duration (progress bar click)
func (e *Engine) SeekRatio(ratio float64) {
	e.mu.Lock()
	duration := e.state.Duration
	e.mu.Unlock()

	e.Seek(ratio * duration)
}

// SelectClip activates clip, seeks to its start and starts playback. A
// playback refusal is logged and leaves the engine paused.
func (e *Engine) SelectClip(clip catalog.Clip) {
	e.mu.Lock()

	if !e.bound {
		e.mu.Unlock()
		log.Printf("Ignoring clip selection %q: no source bound", clip.ID)
		return
	}

	e.selectClipLocked(clip)

	st := e.snapshot()
	e.mu.Unlock()
	e.notify(st)
}

// SelectClipByID selects a catalog clip by id
func (e *Engine) SelectClipByID(id string) bool {
	e.mu.Lock()
	var (
		clip  catalog.Clip
		found bool
	)
	for _, c := range e.clips {
		if c.ID == id {
			clip, found = c, true
			break
		}
	}
	e.mu.Unlock()

	if !found {
		return false
	}
	e.SelectClip(clip)
	return true
}

// SetVolume applies a gain in 0..1 to the element
func (e *Engine) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.element != nil && e.embed == nil {
		e.element.SetVolume(volume)
	}
}

// HandleEvent applies one media element event
func (e *Engine) HandleEvent(ev Event) {
	e.mu.Lock()

	if !e.bound || e.embed != nil {
		e.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventMetadata:
		e.metadataReady = true
		e.state.Duration = ev.Duration
		if e.pendingSeek != nil {
			target := *e.pendingSeek
			e.pendingSeek = nil
			e.seekLocked(target)
		}

	case EventSeeked:
		if e.seeksInFlight > 0 {
			e.seeksInFlight--
		}
		if e.seeksInFlight == 0 {
			e.state.Position = ev.Position
		}

	case EventTimeUpdate:
		// Ticks reported before an outstanding seek describe the old position
		if e.seeksInFlight > 0 {
			e.mu.Unlock()
			return
		}
		e.state.Position = ev.Position
		e.checkBoundaryLocked()

	case EventPlay:
		e.state.Playing = true

	case EventPause:
		e.state.Playing = false

	case EventEnded:
		e.state.Playing = false
		if e.seeksInFlight == 0 {
			e.state.Position = ev.Position
			e.checkBoundaryLocked()
		}
	}

	st := e.snapshot()
	e.mu.Unlock()
	e.notify(st)
}

// Run applies element events until ctx ends or the element closes its channel
func (e *Engine) Run(ctx context.Context) {
	if e.element == nil {
		<-ctx.Done()
		return
	}

	events := e.element.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.HandleEvent(ev)
		case <-ctx.Done():
			return
		}
	}
}

// State returns a snapshot of playback state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Clips returns the bound clip list in declaration order
func (e *Engine) Clips() []catalog.Clip {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]catalog.Clip(nil), e.clips...)
}

// seekLocked clamps and applies a seek (must hold e.mu)
func (e *Engine) seekLocked(target float64) {
	if e.state.ActiveClip != nil {
		target = e.state.ActiveClip.Clamp(target)
	} else {
		if target < 0 {
			target = 0
		}
		if e.metadataReady && target > e.state.Duration {
			target = e.state.Duration
		}
	}

	e.state.Position = target

	if !e.metadataReady {
		e.pendingSeek = &target
		return
	}

	if err := e.element.SetPosition(target); err != nil {
		log.Printf("Error seeking to %.2fs: %v", target, err)
		return
	}
	e.seeksInFlight++
}

// selectClipLocked activates a clip (must hold e.mu)
func (e *Engine) selectClipLocked(clip catalog.Clip) {
	c := clip
	e.state.ActiveClip = &c

	if e.embed != nil {
		e.state.Position = clip.StartTime
		e.state.EmbedURL = e.embed.URLAt(clip.StartTime, true)
		e.state.Playing = true
		log.Printf("Embed re-pointed to clip %s at %.0fs", clip.ID, clip.StartTime)
		return
	}

	e.seekLocked(clip.StartTime)

	if err := e.element.Play(); err != nil {
		log.Printf("Error playing clip %s: %v", clip.ID, err)
		e.state.Playing = false
		return
	}
	e.state.Playing = true
	log.Printf("Playing clip %s (%.2fs - %.2fs)", clip.ID, clip.StartTime, clip.EndTime)
}

// checkBoundaryLocked advances past the active clip's end (must hold e.mu)
func (e *Engine) checkBoundaryLocked() {
	active := e.state.ActiveClip
	if active == nil || e.state.Position < active.EndTime {
		return
	}

	idx := -1
	for i, c := range e.clips {
		if c.ID == active.ID {
			idx = i
			break
		}
	}

	if idx >= 0 && idx+1 < len(e.clips) {
		e.selectClipLocked(e.clips[idx+1])
		return
	}

	// Last clip: stop at its end and stay on it
	if err := e.element.Pause(); err != nil {
		log.Printf("Error pausing at end of clip list: %v", err)
	}
	e.state.Playing = false
	if e.state.Position > active.EndTime {
		e.seekLocked(active.EndTime)
	}
}

// snapshot copies state (must hold e.mu)
func (e *Engine) snapshot() State {
	st := e.state
	if st.ActiveClip != nil {
		c := *st.ActiveClip
		st.ActiveClip = &c
	}
	return st
}

// notify fans state out to listeners (must not hold e.mu)
func (e *Engine) notify(st State) {
	e.listenersMu.RLock()
	listeners := make([]func(State), len(e.listeners))
	copy(listeners, e.listeners)
	e.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(st)
	}
}
