// ABOUTME: Tests for the voice chat orchestrator
// ABOUTME: Drives turns with fake capture, gateway and player
package voicechat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/clipchat/internal/capture"
	"github.com/harperreed/clipchat/internal/gateway"
	"github.com/harperreed/clipchat/internal/notice"
	"github.com/harperreed/clipchat/pkg/audio"
)

type fakeRecorder struct {
	mu        sync.Mutex
	recording bool
	startErr  error
	starts    int
	mode      capture.Mode
	events    chan capture.Event
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{events: make(chan capture.Event, 16)}
}

func (r *fakeRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		if errors.Is(r.startErr, capture.ErrDeviceDenied) {
			r.events <- capture.Event{Kind: capture.EventDeviceError, Err: r.startErr}
		}
		return r.startErr
	}
	if r.recording {
		return capture.ErrAlreadyRecording
	}
	r.recording = true
	r.starts++
	return nil
}

func (r *fakeRecorder) Stop() (audio.Unit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return audio.Unit{}, false
	}
	r.recording = false
	unit := testUnit()
	r.events <- capture.Event{Kind: capture.EventStopped, Unit: unit}
	return unit, true
}

func (r *fakeRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func (r *fakeRecorder) Mode() capture.Mode { return r.mode }

func (r *fakeRecorder) Events() <-chan capture.Event { return r.events }

func testUnit() audio.Unit {
	return audio.Unit{
		Data:     make([]byte, 64),
		Format:   capture.DefaultFormat,
		Filename: capture.RecordingFilename,
	}
}

type fakeGateway struct {
	mu            sync.Mutex
	transcript    string
	transcribeErr error
	chatErr       error
	speechErr     error
	noSpeech      bool
	chatBlock     chan struct{}
	transcribed   int
	chatted       []string
	synthesized   []string
}

func (g *fakeGateway) Transcribe(ctx context.Context, unit audio.Unit) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transcribed++
	if g.transcribeErr != nil {
		return "", g.transcribeErr
	}
	return g.transcript, nil
}

func (g *fakeGateway) Chat(ctx context.Context, transcript string) (string, error) {
	g.mu.Lock()
	block := g.chatBlock
	g.chatted = append(g.chatted, transcript)
	err := g.chatErr
	g.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return gateway.FallbackReply, err
	}
	return "reply to " + transcript, nil
}

func (g *fakeGateway) Synthesize(ctx context.Context, text string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.synthesized = append(g.synthesized, text)
	if g.speechErr != nil {
		return nil, g.speechErr
	}
	if g.noSpeech {
		return nil, nil
	}
	return []byte("mp3"), nil
}

type fakePlayer struct {
	mu     sync.Mutex
	played int
	units  int
}

func (p *fakePlayer) Play(ctx context.Context, mp3 []byte) error {
	p.mu.Lock()
	p.played++
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) PlayUnit(ctx context.Context, unit audio.Unit) error {
	p.mu.Lock()
	p.units++
	p.mu.Unlock()
	return nil
}

type noticeLog struct {
	mu      sync.Mutex
	notices []notice.Notice
}

func (l *noticeLog) sink(n notice.Notice) {
	l.mu.Lock()
	l.notices = append(l.notices, n)
	l.mu.Unlock()
}

func (l *noticeLog) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range l.notices {
		if n.Message == msg {
			return true
		}
	}
	return false
}

type harness struct {
	orch     *Orchestrator
	recorder *fakeRecorder
	gateway  *fakeGateway
	player   *fakePlayer
	notices  *noticeLog
	cancel   context.CancelFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		recorder: newFakeRecorder(),
		gateway:  &fakeGateway{transcript: "who directed jaws"},
		player:   &fakePlayer{},
		notices:  &noticeLog{},
	}
	h.orch = New(h.recorder, h.player, Config{OnNotice: h.notices.sink})
	h.orch.SetGateway(h.gateway)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.orch.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (h *harness) idle() bool {
	return !h.orch.Status().Processing
}

func TestFullTurn(t *testing.T) {
	h := newHarness(t)

	if err := h.orch.StartCapture(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !h.notices.has(MsgRecordingStarted) {
		t.Error("expected recording started notice")
	}

	h.orch.StopCapture()
	waitFor(t, "reply playback", func() bool {
		h.player.mu.Lock()
		defer h.player.mu.Unlock()
		return h.player.played == 1
	})

	st := h.orch.Status()
	if st.Turn.Transcript != "who directed jaws" {
		t.Errorf("unexpected transcript %q", st.Turn.Transcript)
	}
	if st.Turn.Reply != "reply to who directed jaws" {
		t.Errorf("unexpected reply %q", st.Turn.Reply)
	}
	if st.Turn.ID == "" {
		t.Error("expected turn id")
	}
	if !st.HasRecording {
		t.Error("expected last recording kept")
	}
	if !h.notices.has(MsgProcessing) {
		t.Error("expected processing notice")
	}
	waitFor(t, "idle", h.idle)
}

func TestStreamingPartialSkipsTranscription(t *testing.T) {
	h := newHarness(t)
	h.recorder.mode = capture.ModeStreaming

	if err := h.orch.StartCapture(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !h.notices.has(MsgStartedListening) {
		t.Error("expected started listening notice")
	}

	h.recorder.events <- capture.Event{Kind: capture.EventPartialTranscript, Text: "casablanca"}
	waitFor(t, "partial", func() bool { return h.orch.Status().Partial == "casablanca" })

	h.recorder.mu.Lock()
	h.recorder.recording = false
	h.recorder.mu.Unlock()
	h.recorder.events <- capture.Event{Kind: capture.EventStopped, Unit: testUnit(), Text: "casablanca"}

	waitFor(t, "reply", func() bool { return h.orch.Status().Turn.Reply == "reply to casablanca" })

	h.gateway.mu.Lock()
	defer h.gateway.mu.Unlock()
	if h.gateway.transcribed != 0 {
		t.Errorf("expected no transcription call, got %d", h.gateway.transcribed)
	}
}

func TestTranscriptionFailureAbortsTurn(t *testing.T) {
	h := newHarness(t)
	h.gateway.transcribeErr = errors.New("offline")

	h.orch.StartCapture()
	h.orch.StopCapture()

	waitFor(t, "failure notice", func() bool { return h.notices.has(MsgProcessFailed) })
	waitFor(t, "idle", h.idle)

	h.gateway.mu.Lock()
	chatted := len(h.gateway.chatted)
	h.gateway.mu.Unlock()
	if chatted != 0 {
		t.Error("chat must not run after transcription failed")
	}
}

func TestChatFailureThenStartSucceeds(t *testing.T) {
	h := newHarness(t)
	h.gateway.chatErr = errors.New("rate limited")

	h.orch.StartCapture()
	h.orch.StopCapture()

	waitFor(t, "failure notice", func() bool { return h.notices.has(MsgResponseFailed) })
	waitFor(t, "idle", h.idle)

	if reply := h.orch.Status().Turn.Reply; reply != gateway.FallbackReply {
		t.Errorf("expected fallback reply shown, got %q", reply)
	}

	h.gateway.mu.Lock()
	synthesized := len(h.gateway.synthesized)
	h.gateway.mu.Unlock()
	if synthesized != 0 {
		t.Error("synthesis must not run after chat failed")
	}

	if err := h.orch.StartCapture(); err != nil {
		t.Errorf("expected new capture to start immediately, got %v", err)
	}
}

func TestSpeechFailureNoPlayback(t *testing.T) {
	h := newHarness(t)
	h.gateway.speechErr = errors.New("quota")

	h.orch.StartCapture()
	h.orch.StopCapture()

	waitFor(t, "speech notice", func() bool { return h.notices.has(MsgSpeechFailed) })
	waitFor(t, "idle", h.idle)

	h.player.mu.Lock()
	defer h.player.mu.Unlock()
	if h.player.played != 0 {
		t.Error("expected no playback after synthesis failure")
	}
}

func TestEmptySpeechSkipsPlayback(t *testing.T) {
	h := newHarness(t)
	h.gateway.noSpeech = true

	h.orch.StartCapture()
	h.orch.StopCapture()

	waitFor(t, "reply", func() bool { return h.orch.Status().Turn.Reply != "" })
	waitFor(t, "idle", h.idle)

	h.player.mu.Lock()
	defer h.player.mu.Unlock()
	if h.player.played != 0 {
		t.Errorf("expected no playback without speech, got %d", h.player.played)
	}
}

func TestCaptureBlockedRightAfterStop(t *testing.T) {
	rec := newFakeRecorder()
	g := &fakeGateway{transcript: "first take"}
	orch := New(rec, &fakePlayer{}, Config{})
	orch.SetGateway(g)

	if err := orch.StartCapture(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	orch.StopCapture()

	// The Stopped event has not been consumed yet
	if err := orch.StartCapture(); !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight before the turn is handled, got %v", err)
	}
	if rec.Recording() {
		t.Fatal("second capture must not open the microphone")
	}
	if !orch.Status().Processing {
		t.Error("expected status to report processing after stop")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orch.Run(ctx)

	waitFor(t, "first turn reply", func() bool { return orch.Status().Turn.Reply == "reply to first take" })
	waitFor(t, "idle", func() bool { return !orch.Status().Processing })

	if err := orch.StartCapture(); err != nil {
		t.Errorf("expected start after turn finished, got %v", err)
	}
}

func TestStopWhileIdleLeavesCaptureReady(t *testing.T) {
	h := newHarness(t)

	h.orch.StopCapture()

	if h.orch.Status().Processing {
		t.Error("stop without a recording must not block capture")
	}
	if err := h.orch.StartCapture(); err != nil {
		t.Errorf("expected start to succeed, got %v", err)
	}
}

func TestCaptureBlockedWhileProcessing(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.gateway.chatBlock = release

	h.orch.StartCapture()
	h.orch.StopCapture()

	waitFor(t, "chat in flight", func() bool {
		h.gateway.mu.Lock()
		defer h.gateway.mu.Unlock()
		return len(h.gateway.chatted) == 1
	})

	if err := h.orch.StartCapture(); !errors.Is(err, ErrTurnInFlight) {
		t.Errorf("expected ErrTurnInFlight, got %v", err)
	}

	close(release)
	waitFor(t, "idle", h.idle)

	if err := h.orch.StartCapture(); err != nil {
		t.Errorf("expected start after turn finished, got %v", err)
	}
}

func TestStaleTurnDiscarded(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.gateway.chatBlock = release

	h.orch.StartCapture()
	h.orch.StopCapture()

	waitFor(t, "chat in flight", func() bool {
		h.gateway.mu.Lock()
		defer h.gateway.mu.Unlock()
		return len(h.gateway.chatted) == 1
	})

	// Replacing the gateway abandons the turn in flight
	fresh := &fakeGateway{transcript: "new"}
	h.orch.SetGateway(fresh)
	close(release)

	time.Sleep(50 * time.Millisecond)

	if reply := h.orch.Status().Turn.Reply; reply != "" {
		t.Errorf("stale reply applied: %q", reply)
	}
	h.player.mu.Lock()
	defer h.player.mu.Unlock()
	if h.player.played != 0 {
		t.Error("stale turn must not play audio")
	}
}

func TestStartWithoutCredential(t *testing.T) {
	rec := newFakeRecorder()
	notices := &noticeLog{}
	orch := New(rec, &fakePlayer{}, Config{OnNotice: notices.sink})

	if err := orch.StartCapture(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("expected ErrNoCredential, got %v", err)
	}
	if rec.starts != 0 {
		t.Error("microphone must not open without a credential")
	}
	if orch.Status().HasCredential {
		t.Error("expected no credential in status")
	}
}

func TestDeviceErrorNotice(t *testing.T) {
	h := newHarness(t)
	h.recorder.startErr = &capture.DeviceAccessError{Err: errors.New("no device")}

	if err := h.orch.StartCapture(); !errors.Is(err, capture.ErrDeviceDenied) {
		t.Errorf("expected device denied, got %v", err)
	}
	waitFor(t, "microphone notice", func() bool { return h.notices.has(MsgMicrophone) })

	if h.orch.Status().Processing {
		t.Error("device failure must leave the orchestrator ready")
	}
}

func TestReplayRecording(t *testing.T) {
	h := newHarness(t)

	if err := h.orch.ReplayRecording(context.Background()); err == nil {
		t.Error("expected error with nothing recorded")
	}

	h.orch.StartCapture()
	h.orch.StopCapture()
	waitFor(t, "recording kept", func() bool { return h.orch.Status().HasRecording })

	if err := h.orch.ReplayRecording(context.Background()); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	h.player.mu.Lock()
	defer h.player.mu.Unlock()
	if h.player.units != 1 {
		t.Errorf("expected one replay, got %d", h.player.units)
	}
}

func TestToggleCapture(t *testing.T) {
	h := newHarness(t)

	if err := h.orch.ToggleCapture(); err != nil {
		t.Fatalf("toggle on failed: %v", err)
	}
	if !h.recorder.Recording() {
		t.Fatal("expected recording after toggle")
	}
	h.orch.ToggleCapture()
	if h.recorder.Recording() {
		t.Error("expected recording stopped after second toggle")
	}
}
