// ABOUTME: Microphone capture session
// ABOUTME: Records PCM on a fixed cadence in batch or streaming mode and emits typed events
package capture

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/clipchat/pkg/audio"
	"github.com/harperreed/clipchat/pkg/audio/encode"
)

// RecordingFilename is the name attached to every captured unit
const RecordingFilename = "recording.wav"

const (
	eventBuffer = 64

	// stoppedReserve slots of the event buffer only ever hold EventStopped
	stoppedReserve = 4
)

// Mode selects how audio leaves the session
type Mode int

const (
	// ModeBatch hands over one unit on stop
	ModeBatch Mode = iota
	// ModeStreaming transcribes the capture so far on every cadence tick
	ModeStreaming
)

// String returns the mode name
func (m Mode) String() string {
	if m == ModeStreaming {
		return "streaming"
	}
	return "batch"
}

// ParseMode parses "batch" or "streaming"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "batch":
		return ModeBatch, nil
	case "streaming", "stream":
		return ModeStreaming, nil
	default:
		return ModeBatch, fmt.Errorf("unknown capture mode: %q", s)
	}
}

// Microphone acquires an exclusive capture device
type Microphone interface {
	Open(format audio.Format, onData func(pcm []byte)) (io.Closer, error)
}

// Transcriber turns a unit into text
type Transcriber interface {
	Transcribe(ctx context.Context, unit audio.Unit) (string, error)
}

// EventKind identifies a session event
type EventKind int

const (
	EventPartialTranscript EventKind = iota
	EventStopped
	EventDeviceError
)

// String returns the event name
func (k EventKind) String() string {
	switch k {
	case EventPartialTranscript:
		return "partial"
	case EventStopped:
		return "stopped"
	case EventDeviceError:
		return "device-error"
	default:
		return "unknown"
	}
}

// Event is emitted on the session's event channel
type Event struct {
	Kind EventKind

	// Text is the partial transcript, or on EventStopped the last partial
	// when it already covers the whole recording
	Text string

	// Unit is the finished recording on EventStopped
	Unit audio.Unit

	// Err is set on EventDeviceError
	Err error
}

// Config holds session configuration
type Config struct {
	Mode              Mode
	Cadence           time.Duration
	Format            audio.Format
	TranscribeTimeout time.Duration
}

// DefaultFormat is 16kHz mono 16-bit, what speech endpoints expect
var DefaultFormat = audio.Format{Codec: "wav", SampleRate: 16000, Channels: 1, BitDepth: 16}

type state int

const (
	stateIdle state = iota
	stateStarting
	stateRecording
)

type job struct {
	gen   uint64
	unit  audio.Unit
	bytes int
}

// Session is one microphone capture lifecycle, reusable across recordings
type Session struct {
	mic         Microphone
	transcriber Transcriber
	config      Config
	encoder     *encode.WAVEncoder
	events      chan Event

	mu       sync.Mutex
	state    state
	gen      uint64
	device   io.Closer
	pending  []byte
	chunks   [][]byte
	stopTick chan struct{}

	transcribing bool
	queued       *job
	lastPartial  string
	partialBytes int

	// deliverMu orders partial delivery against Stop
	deliverMu sync.Mutex
}

// NewSession creates an idle session. transcriber is only used in streaming mode.
func NewSession(mic Microphone, transcriber Transcriber, config Config) (*Session, error) {
	if config.Cadence <= 0 {
		config.Cadence = time.Second
	}
	if config.Format.SampleRate == 0 {
		config.Format = DefaultFormat
	}
	if config.TranscribeTimeout <= 0 {
		config.TranscribeTimeout = 30 * time.Second
	}
	if config.Mode == ModeStreaming && transcriber == nil {
		return nil, fmt.Errorf("streaming mode requires a transcriber")
	}

	enc, err := encode.NewWAV(config.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	return &Session{
		mic:         mic,
		transcriber: transcriber,
		config:      config,
		encoder:     enc,
		events:      make(chan Event, eventBuffer),
	}, nil
}

// Events returns the session's event channel
func (s *Session) Events() <-chan Event {
	return s.events
}

// Mode returns the configured mode
func (s *Session) Mode() Mode {
	return s.config.Mode
}

// Recording reports whether the microphone is held
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateRecording
}

// Start acquires the microphone and begins recording
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != stateIdle {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	s.state = stateStarting
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	device, err := s.mic.Open(s.config.Format, func(pcm []byte) {
		s.mu.Lock()
		if s.state == stateRecording && s.gen == gen {
			s.pending = append(s.pending, pcm...)
		}
		s.mu.Unlock()
	})
	if err != nil {
		s.mu.Lock()
		s.state = stateIdle
		s.mu.Unlock()

		derr := &DeviceAccessError{Err: err}
		log.Printf("Capture failed: %v", derr)
		s.emit(Event{Kind: EventDeviceError, Err: derr})
		return derr
	}

	s.mu.Lock()
	s.state = stateRecording
	s.device = device
	s.pending = nil
	s.chunks = nil
	s.lastPartial = ""
	s.partialBytes = 0
	s.stopTick = make(chan struct{})
	stop := s.stopTick
	s.mu.Unlock()

	go s.tick(gen, stop)

	log.Printf("Capture started (%s mode, %v cadence)", s.config.Mode, s.config.Cadence)
	return nil
}

// Stop releases the microphone and returns the recording. When idle it does
// nothing and reports false. No partial transcript is emitted after Stop returns.
func (s *Session) Stop() (audio.Unit, bool) {
	s.mu.Lock()
	if s.state != stateRecording {
		s.mu.Unlock()
		return audio.Unit{}, false
	}

	s.state = stateIdle
	s.gen++
	close(s.stopTick)
	s.stopTick = nil
	device := s.device
	s.device = nil

	s.flushLocked()
	total := 0
	for _, c := range s.chunks {
		total += len(c)
	}
	pcm := make([]byte, 0, total)
	for _, c := range s.chunks {
		pcm = append(pcm, c...)
	}
	s.chunks = nil
	s.pending = nil
	s.queued = nil
	s.mu.Unlock()

	if err := device.Close(); err != nil {
		log.Printf("Error releasing microphone: %v", err)
	}

	// Wait out any partial delivery that passed its check before the stop
	s.deliverMu.Lock()
	s.deliverMu.Unlock()

	s.mu.Lock()
	final := ""
	if s.partialBytes == len(pcm) {
		final = s.lastPartial
	}
	s.lastPartial = ""
	s.partialBytes = 0
	s.mu.Unlock()

	var unit audio.Unit
	if len(pcm) > 0 {
		unit = s.encoder.Unit(pcm, RecordingFilename)
	}

	log.Printf("Capture stopped: %v of audio", s.config.Format.Duration(len(pcm)))
	s.emit(Event{Kind: EventStopped, Unit: unit, Text: final})
	return unit, true
}

// tick moves buffered PCM into chunks on the cadence
func (s *Session) tick(gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(s.config.Cadence)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.gen != gen || s.state != stateRecording {
			s.mu.Unlock()
			return
		}
		if !s.flushLocked() || s.config.Mode != ModeStreaming {
			s.mu.Unlock()
			continue
		}

		// Cumulative unit: everything recorded so far, WAV-wrapped
		var pcm []byte
		for _, c := range s.chunks {
			pcm = append(pcm, c...)
		}
		s.submitLocked(job{gen: gen, unit: s.encoder.Unit(pcm, RecordingFilename), bytes: len(pcm)})
		s.mu.Unlock()
	}
}

// flushLocked closes the pending chunk; reports whether one was added (must hold s.mu)
func (s *Session) flushLocked() bool {
	if len(s.pending) == 0 {
		return false
	}
	s.chunks = append(s.chunks, s.pending)
	s.pending = nil
	return true
}

// submitLocked runs j now or replaces the queued job (must hold s.mu)
func (s *Session) submitLocked(j job) {
	if s.transcribing {
		s.queued = &j
		return
	}
	s.transcribing = true
	go s.transcribeLoop(j)
}

// transcribeLoop runs one transcription at a time until nothing is queued
func (s *Session) transcribeLoop(j job) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.TranscribeTimeout)
		text, err := s.transcriber.Transcribe(ctx, j.unit)
		cancel()

		if err != nil {
			log.Printf("Streaming transcription failed: %v", err)
		} else if text != "" {
			s.deliverPartial(j, text)
		}

		s.mu.Lock()
		if s.queued == nil {
			s.transcribing = false
			s.mu.Unlock()
			return
		}
		j = *s.queued
		s.queued = nil
		s.mu.Unlock()
	}
}

// deliverPartial emits text if j still belongs to the live recording
func (s *Session) deliverPartial(j job, text string) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	live := s.state == stateRecording && s.gen == j.gen
	if live {
		s.lastPartial = text
		s.partialBytes = j.bytes
	}
	s.mu.Unlock()

	if !live {
		log.Printf("Discarding stale partial transcript")
		return
	}
	s.emit(Event{Kind: EventPartialTranscript, Text: text})
}

// emit sends without blocking; the consumer may be the caller of Stop.
// The last stoppedReserve slots are kept for EventStopped, which is never dropped.
func (s *Session) emit(ev Event) {
	if ev.Kind != EventStopped {
		if len(s.events) >= cap(s.events)-stoppedReserve {
			log.Printf("Capture event channel full, dropping %s event", ev.Kind)
			return
		}
		select {
		case s.events <- ev:
		default:
			log.Printf("Capture event channel full, dropping %s event", ev.Kind)
		}
		return
	}

	select {
	case s.events <- ev:
	default:
		log.Printf("Capture event channel full, waiting to deliver %s event", ev.Kind)
		s.events <- ev
	}
}
