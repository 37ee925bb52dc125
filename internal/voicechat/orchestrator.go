// ABOUTME: Voice chat orchestration
// ABOUTME: Runs each turn through transcription, chat, synthesis and playback in order
package voicechat

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/harperreed/clipchat/internal/capture"
	"github.com/harperreed/clipchat/internal/credential"
	"github.com/harperreed/clipchat/internal/notice"
	"github.com/harperreed/clipchat/pkg/audio"
)

var (
	// ErrTurnInFlight is returned when capture is requested while a turn is processing
	ErrTurnInFlight = errors.New("a turn is still being processed")

	// ErrNoCredential is returned when no valid credential has been configured
	ErrNoCredential = errors.New("no API credential configured")
)

// Notice texts shown to the user
const (
	MsgStartedListening = "Started listening..."
	MsgRecordingStarted = "Recording started"
	MsgProcessing       = "Processing your audio..."
	MsgMicrophone       = "Could not access microphone"
	MsgProcessFailed    = "Failed to process audio"
	MsgResponseFailed   = "Failed to get response"
	MsgSpeechFailed     = "Failed to generate speech"
)

// Recorder is the capture session the orchestrator drives
type Recorder interface {
	Start() error
	Stop() (audio.Unit, bool)
	Recording() bool
	Mode() capture.Mode
	Events() <-chan capture.Event
}

// Gateway is the AI provider
type Gateway interface {
	Transcribe(ctx context.Context, unit audio.Unit) (string, error)
	Chat(ctx context.Context, transcript string) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player plays synthesized replies and recordings
type Player interface {
	Play(ctx context.Context, mp3 []byte) error
	PlayUnit(ctx context.Context, unit audio.Unit) error
}

// ConversationTurn is the one live transcript/reply pair
type ConversationTurn struct {
	ID         string
	Transcript string
	Reply      string
}

// Status is a snapshot for rendering
type Status struct {
	Recording     bool
	Processing    bool
	Partial       string
	Turn          ConversationTurn
	HasRecording  bool
	HasCredential bool
}

// Config holds orchestrator callbacks
type Config struct {
	OnNotice notice.Sink
	OnStatus func(Status)
}

// Orchestrator sequences voice chat turns. Only one turn is processed at a
// time and capture cannot start while one is in flight.
type Orchestrator struct {
	recorder Recorder
	player   Player
	config   Config

	stopMu sync.Mutex // serializes StopCapture

	mu            sync.Mutex
	gateway       Gateway
	turnSeq       uint64
	processing    bool
	stopPending   bool // stopped, Stopped event not yet handled
	partial       string
	turn          ConversationTurn
	lastRecording audio.Unit
}

// New creates an orchestrator. The gateway is attached later with SetGateway
// once a valid credential exists.
func New(recorder Recorder, player Player, config Config) *Orchestrator {
	if config.OnNotice == nil {
		config.OnNotice = notice.Discard
	}
	if config.OnStatus == nil {
		config.OnStatus = func(Status) {}
	}
	return &Orchestrator{
		recorder: recorder,
		player:   player,
		config:   config,
	}
}

// SetGateway attaches (or with nil detaches) the provider. Any turn in
// flight is abandoned and its results are discarded.
func (o *Orchestrator) SetGateway(g Gateway) {
	o.mu.Lock()
	o.gateway = g
	o.turnSeq++
	o.processing = false
	o.mu.Unlock()
	o.publish()
}

// StartCapture begins recording a new turn
func (o *Orchestrator) StartCapture() error {
	o.mu.Lock()
	if o.processing || o.stopPending {
		o.mu.Unlock()
		return ErrTurnInFlight
	}
	if o.gateway == nil {
		o.mu.Unlock()
		o.config.OnNotice(notice.Error(credential.Prompt))
		return ErrNoCredential
	}
	o.partial = ""
	o.mu.Unlock()

	if err := o.recorder.Start(); err != nil {
		// Device failures are announced from the capture event
		if !errors.Is(err, capture.ErrDeviceDenied) {
			log.Printf("Failed to start capture: %v", err)
		}
		return err
	}

	if o.recorder.Mode() == capture.ModeStreaming {
		o.config.OnNotice(notice.Info(MsgStartedListening))
	} else {
		o.config.OnNotice(notice.Info(MsgRecordingStarted))
	}
	o.publish()
	return nil
}

// StopCapture ends recording; the turn starts when the session reports it
// stopped. Capture stays blocked from here until that turn finishes.
func (o *Orchestrator) StopCapture() {
	o.stopMu.Lock()
	defer o.stopMu.Unlock()

	o.mu.Lock()
	o.stopPending = true
	o.mu.Unlock()

	if _, stopped := o.recorder.Stop(); !stopped {
		o.mu.Lock()
		o.stopPending = false
		o.mu.Unlock()
		return
	}
	o.publish()
}

// ToggleCapture starts or stops recording
func (o *Orchestrator) ToggleCapture() error {
	if o.recorder.Recording() {
		o.StopCapture()
		return nil
	}
	return o.StartCapture()
}

// ReplayRecording plays the last captured recording
func (o *Orchestrator) ReplayRecording(ctx context.Context) error {
	o.mu.Lock()
	unit := o.lastRecording
	o.mu.Unlock()

	if unit.Empty() {
		return errors.New("no recording to replay")
	}
	return o.player.PlayUnit(ctx, unit)
}

// Status returns a snapshot
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked()
}

// Run consumes capture events until ctx ends
func (o *Orchestrator) Run(ctx context.Context) {
	events := o.recorder.Events()
	for {
		select {
		case <-ctx.Done():
			o.recorder.Stop()
			return
		case ev := <-events:
			o.handleEvent(ctx, ev)
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, ev capture.Event) {
	switch ev.Kind {
	case capture.EventPartialTranscript:
		o.mu.Lock()
		o.partial = ev.Text
		o.mu.Unlock()
		o.publish()

	case capture.EventDeviceError:
		log.Printf("Microphone unavailable: %v", ev.Err)
		o.config.OnNotice(notice.Error(MsgMicrophone))
		o.publish()

	case capture.EventStopped:
		o.mu.Lock()
		if !ev.Unit.Empty() {
			o.lastRecording = ev.Unit
		}
		gateway := o.gateway
		o.turnSeq++
		seq := o.turnSeq
		o.processing = gateway != nil
		o.stopPending = false
		o.mu.Unlock()

		if gateway == nil {
			o.config.OnNotice(notice.Error(credential.Prompt))
			o.publish()
			return
		}

		o.publish()
		go o.processTurn(ctx, seq, gateway, ev.Unit, ev.Text)
	}
}

// processTurn runs the stages strictly in sequence; any failure ends the turn
func (o *Orchestrator) processTurn(ctx context.Context, seq uint64, g Gateway, unit audio.Unit, transcript string) {
	defer o.finishTurn(seq)

	o.config.OnNotice(notice.Info(MsgProcessing))
	turnID := uuid.New().String()

	if transcript == "" {
		if unit.Empty() {
			o.config.OnNotice(notice.Error(MsgProcessFailed))
			return
		}
		text, err := g.Transcribe(ctx, unit)
		if err != nil || text == "" {
			log.Printf("Turn %s: no transcript: %v", turnID, err)
			o.config.OnNotice(notice.Error(MsgProcessFailed))
			return
		}
		transcript = text
	}

	if !o.apply(seq, ConversationTurn{ID: turnID, Transcript: transcript}) {
		return
	}

	reply, err := g.Chat(ctx, transcript)
	if err != nil {
		log.Printf("Turn %s: chat failed: %v", turnID, err)
		o.apply(seq, ConversationTurn{ID: turnID, Transcript: transcript, Reply: reply})
		o.config.OnNotice(notice.Error(MsgResponseFailed))
		return
	}

	if !o.apply(seq, ConversationTurn{ID: turnID, Transcript: transcript, Reply: reply}) {
		return
	}

	speech, err := g.Synthesize(ctx, reply)
	if err != nil {
		log.Printf("Turn %s: synthesis failed: %v", turnID, err)
		o.config.OnNotice(notice.Error(MsgSpeechFailed))
		return
	}

	if len(speech) == 0 {
		log.Printf("Turn %s: no speech returned, skipping playback", turnID)
		return
	}

	if !o.current(seq) {
		return
	}

	// Capture may start again while the reply plays
	o.finishTurn(seq)

	if err := o.player.Play(ctx, speech); err != nil {
		log.Printf("Turn %s: playback failed: %v", turnID, err)
	}
}

// apply stores turn if seq is still the latest turn
func (o *Orchestrator) apply(seq uint64, turn ConversationTurn) bool {
	o.mu.Lock()
	if seq != o.turnSeq {
		o.mu.Unlock()
		log.Printf("Discarding stale turn result")
		return false
	}
	o.turn = turn
	o.mu.Unlock()
	o.publish()
	return true
}

func (o *Orchestrator) current(seq uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return seq == o.turnSeq
}

func (o *Orchestrator) finishTurn(seq uint64) {
	o.mu.Lock()
	if seq != o.turnSeq || !o.processing {
		o.mu.Unlock()
		return
	}
	o.processing = false
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) publish() {
	o.config.OnStatus(o.Status())
}

// statusLocked builds a snapshot (must hold o.mu)
func (o *Orchestrator) statusLocked() Status {
	return Status{
		Recording:     o.recorder.Recording(),
		Processing:    o.processing || o.stopPending,
		Partial:       o.partial,
		Turn:          o.turn,
		HasRecording:  !o.lastRecording.Empty(),
		HasCredential: o.gateway != nil,
	}
}
