// ABOUTME: Tests for WebSocket client implementation
// ABOUTME: Tests connection, handshake, and command routing against a live server
package client

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/clipchat/internal/catalog"
	"github.com/harperreed/clipchat/internal/playback"
	"github.com/harperreed/clipchat/internal/remote"
)

type stubEngine struct {
	mu        sync.Mutex
	state     playback.State
	seeks     []float64
	listeners []func(playback.State)
}

func (e *stubEngine) State() playback.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *stubEngine) Clips() []catalog.Clip { return catalog.Default().Clips }

func (e *stubEngine) SelectClipByID(id string) bool { return id == "clip1" }

func (e *stubEngine) Seek(target float64) {
	e.mu.Lock()
	e.seeks = append(e.seeks, target)
	e.state.Position = target
	st := e.state
	listeners := e.listeners
	e.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

func (e *stubEngine) SeekRatio(ratio float64) {}

func (e *stubEngine) TogglePlayPause() {}

func (e *stubEngine) OnStateChange(fn func(playback.State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func startServer(t *testing.T) (string, *stubEngine) {
	t.Helper()
	engine := &stubEngine{state: playback.State{Bound: true, Duration: 25}}
	srv := remote.New(remote.Config{Name: "test-player"}, engine, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return strings.TrimPrefix(ts.URL, "http://"), engine
}

func TestNewClient(t *testing.T) {
	config := Config{
		ServerAddr: "localhost:8930",
		ClientID:   "test-client",
		Name:       "Test Remote",
	}

	client := NewClient(config)
	if client == nil {
		t.Fatal("expected client to be created")
	}

	if client.config.ServerAddr != "localhost:8930" {
		t.Errorf("expected server addr localhost:8930, got %s", client.config.ServerAddr)
	}
	if client.IsConnected() {
		t.Error("new client should not be connected")
	}
	if err := client.Toggle(); err == nil {
		t.Error("expected error sending while disconnected")
	}
}

func TestConnectAndSeek(t *testing.T) {
	addr, engine := startServer(t)

	c := NewClient(Config{ServerAddr: addr, ClientID: "r1", Name: "remote"})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()

	select {
	case st := <-c.States:
		if !st.Bound {
			t.Error("expected bound initial state")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial state")
	}

	if err := c.Seek(12.5); err != nil {
		t.Fatalf("seek failed: %v", err)
	}

	select {
	case st := <-c.States:
		if st.Position != 12.5 {
			t.Errorf("expected position 12.5, got %v", st.Position)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no state after seek")
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if len(engine.seeks) != 1 {
		t.Errorf("expected one seek, got %d", len(engine.seeks))
	}
}

func TestUnknownClipError(t *testing.T) {
	addr, _ := startServer(t)

	c := NewClient(Config{ServerAddr: addr, ClientID: "r2", Name: "remote"})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()

	if err := c.SelectClip("clip9"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case serr := <-c.Errors:
		if serr.Error != "unknown_clip" {
			t.Errorf("expected unknown_clip, got %s", serr.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error reply")
	}
}

func TestConnectRefused(t *testing.T) {
	c := NewClient(Config{ServerAddr: "127.0.0.1:1", ClientID: "r3", Name: "remote"})
	if err := c.Connect(); err == nil {
		c.Close()
		t.Fatal("expected dial error")
	}
}
