// ABOUTME: MP3 media element backed by go-mp3 and an oto stream
// ABOUTME: Implements the playback element contract for direct media sources
package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/harperreed/clipchat/internal/catalog"
	"github.com/harperreed/clipchat/internal/playback"
	"github.com/harperreed/clipchat/pkg/audio"
	"github.com/harperreed/clipchat/pkg/audio/output"
)

const (
	tickInterval = 250 * time.Millisecond
	loadTimeout  = 2 * time.Minute
)

// Device is the output surface the element plays through
type Device interface {
	Open(sampleRate, channels int) error
	SampleRate() int
	NewStream(r io.Reader) (output.Stream, error)
}

// Resolver turns a media URI into a local file path
type Resolver interface {
	Resolve(ctx context.Context, uri string) (string, error)
}

// Element plays an MP3 source and reports position ticks
type Element struct {
	mu       sync.Mutex
	device   Device
	resolver Resolver
	queue    *eventQueue

	file     *os.File
	reader   *offsetReader
	stream   output.Stream
	format   audio.Format
	duration float64
	volume   float64
	playing  bool
	stopTick chan struct{}
	closed   bool
}

// NewElement creates an element playing through device. resolver may be nil
// when only local paths are loaded.
func NewElement(device Device, resolver Resolver) *Element {
	return &Element{
		device:   device,
		resolver: resolver,
		queue:    newEventQueue(),
		volume:   1.0,
	}
}

// Load opens src and reports EventMetadata once its duration is known
func (e *Element) Load(src catalog.MediaSource) error {
	path := src.URI
	if e.resolver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		resolved, err := e.resolver.Resolve(ctx, src.URI)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to fetch media: %w", err)
		}
		path = resolved
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open media: %w", err)
	}

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode media: %w", err)
	}

	format := audio.Format{Codec: "pcm", SampleRate: dec.SampleRate(), Channels: 2, BitDepth: 16}

	if err := e.device.Open(format.SampleRate, format.Channels); err != nil {
		f.Close()
		return fmt.Errorf("failed to open output: %w", err)
	}
	if rate := e.device.SampleRate(); rate != format.SampleRate {
		f.Close()
		return fmt.Errorf("media sample rate %dHz does not match output %dHz", format.SampleRate, rate)
	}

	reader := &offsetReader{src: dec}
	stream, err := e.device.NewStream(reader)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create stream: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		stream.Close()
		f.Close()
		return fmt.Errorf("element closed")
	}

	e.releaseLocked()

	e.file = f
	e.reader = reader
	e.stream = stream
	e.format = format
	e.duration = float64(dec.Length()) / float64(format.BytesPerSecond())
	e.playing = false
	stream.SetVolume(e.volume)

	e.stopTick = make(chan struct{})
	go e.tick(e.stopTick)

	log.Printf("Media loaded: %s (%dHz, %.1fs)", path, format.SampleRate, e.duration)
	e.queue.push(playback.Event{Kind: playback.EventMetadata, Duration: e.duration})
	return nil
}

// Play starts or resumes output
func (e *Element) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return fmt.Errorf("no media loaded")
	}
	if e.positionLocked() >= e.duration {
		return fmt.Errorf("media ended")
	}

	e.stream.Play()
	e.playing = true
	e.queue.push(playback.Event{Kind: playback.EventPlay, Position: e.positionLocked()})
	return nil
}

// Pause halts output, keeping position
func (e *Element) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return nil
	}

	e.stream.Pause()
	e.playing = false
	e.queue.push(playback.Event{Kind: playback.EventPause, Position: e.positionLocked()})
	return nil
}

// Paused reports whether output is stopped
func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.playing
}

// SetPosition seeks and acknowledges with EventSeeked
func (e *Element) SetPosition(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return fmt.Errorf("no media loaded")
	}

	offset := byteOffset(seconds, e.format)
	if _, err := e.stream.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}

	e.queue.push(playback.Event{Kind: playback.EventSeeked, Position: positionAt(offset, 0, e.format)})
	return nil
}

// SetVolume sets the stream gain (0..1)
func (e *Element) SetVolume(volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = volume
	if e.stream != nil {
		e.stream.SetVolume(volume)
	}
}

// Events returns the element's event channel
func (e *Element) Events() <-chan playback.Event {
	return e.queue.events()
}

// Close releases the media and closes the event channel
func (e *Element) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.releaseLocked()
	e.queue.close()
	return nil
}

// tick reports position while playing and detects end of media
func (e *Element) tick(stop chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		if e.stream == nil || !e.playing {
			e.mu.Unlock()
			continue
		}

		pos := e.positionLocked()
		if !e.stream.IsPlaying() {
			e.playing = false
			e.queue.push(playback.Event{Kind: playback.EventEnded, Position: pos})
			log.Printf("Media ended at %.2fs", pos)
		} else {
			e.queue.push(playback.Event{Kind: playback.EventTimeUpdate, Position: pos})
		}
		e.mu.Unlock()
	}
}

// positionLocked returns the audible position (must hold e.mu)
func (e *Element) positionLocked() float64 {
	if e.stream == nil {
		return 0
	}
	return positionAt(e.reader.Offset(), e.stream.BufferedSize(), e.format)
}

// releaseLocked closes stream and file (must hold e.mu)
func (e *Element) releaseLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
	if e.stream != nil {
		if err := e.stream.Close(); err != nil {
			log.Printf("Error closing stream: %v", err)
		}
		e.stream = nil
	}
	if e.file != nil {
		e.file.Close()
		e.file = nil
	}
	e.reader = nil
	e.playing = false
}

// byteOffset converts seconds to a frame-aligned PCM byte offset
func byteOffset(seconds float64, format audio.Format) int64 {
	if seconds < 0 {
		seconds = 0
	}
	frame := int64(format.Channels * format.BitDepth / 8)
	if frame <= 0 {
		return 0
	}
	offset := int64(seconds * float64(format.BytesPerSecond()))
	return offset - offset%frame
}

// positionAt converts the decoder offset minus what is still buffered in the
// output into seconds
func positionAt(offset int64, buffered int, format audio.Format) float64 {
	bps := format.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	played := offset - int64(buffered)
	if played < 0 {
		played = 0
	}
	return float64(played) / float64(bps)
}

// offsetReader tracks the decoder read offset for the output goroutine
type offsetReader struct {
	src    io.ReadSeeker
	offset atomic.Int64
}

func (r *offsetReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	r.offset.Add(int64(n))
	return n, err
}

func (r *offsetReader) Seek(offset int64, whence int) (int64, error) {
	n, err := r.src.Seek(offset, whence)
	if err == nil {
		r.offset.Store(n)
	}
	return n, err
}

// Offset returns the current read offset in bytes
func (r *offsetReader) Offset() int64 {
	if r == nil {
		return 0
	}
	return r.offset.Load()
}
