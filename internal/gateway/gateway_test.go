// ABOUTME: Tests for the AI gateway
// ABOUTME: Runs each call against an httptest server standing in for the provider
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harperreed/clipchat/internal/credential"
	"github.com/harperreed/clipchat/pkg/audio"
)

func newTestGateway(t *testing.T, handler http.Handler) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig("sk-test")
	cfg.BaseURL = server.URL + "/v1"

	g, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create gateway: %v", err)
	}
	return g
}

func failing(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})
}

func wavUnit() audio.Unit {
	return audio.Unit{
		Data:     []byte("RIFF....WAVEfmt "),
		Format:   audio.Format{Codec: "wav", SampleRate: 16000, Channels: 1, BitDepth: 16},
		Filename: "recording.wav",
	}
}

func TestNewRejectsBadCredential(t *testing.T) {
	for _, key := range []string{"", "abc"} {
		_, err := New(DefaultConfig(key))
		var ve *credential.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("New(%q): expected ValidationError, got %v", key, err)
		}
	}
}

func TestTranscribe(t *testing.T) {
	var gotAuth, gotModel, gotFormat, gotLanguage, gotFilename string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("bad multipart form: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		gotLanguage = r.FormValue("language")
		if _, hdr, err := r.FormFile("file"); err == nil {
			gotFilename = hdr.Filename
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("who directed jaws\n"))
	})

	g := newTestGateway(t, mux)

	text, err := g.Transcribe(context.Background(), wavUnit())
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if text != "who directed jaws" {
		t.Errorf("expected trimmed transcript, got %q", text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotModel != "whisper-1" {
		t.Errorf("expected whisper-1, got %q", gotModel)
	}
	if gotFormat != "text" {
		t.Errorf("expected text response format, got %q", gotFormat)
	}
	if gotLanguage != "en" {
		t.Errorf("expected language en, got %q", gotLanguage)
	}
	if gotFilename != "recording.wav" {
		t.Errorf("expected recording.wav, got %q", gotFilename)
	}
}

func TestTranscribeFailure(t *testing.T) {
	g := newTestGateway(t, failing(http.StatusInternalServerError))

	text, err := g.Transcribe(context.Background(), wavUnit())
	if text != "" {
		t.Errorf("expected empty transcript on failure, got %q", text)
	}

	var nce *NetworkCallError
	if !errors.As(err, &nce) || nce.Call != CallTranscribe {
		t.Errorf("expected transcribe NetworkCallError, got %v", err)
	}
}

func TestTranscribeEmptyUnit(t *testing.T) {
	g := newTestGateway(t, failing(http.StatusTeapot))

	if _, err := g.Transcribe(context.Background(), audio.Unit{}); err == nil {
		t.Error("expected error for empty recording")
	}
}

func TestChat(t *testing.T) {
	var req struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Steven Spielberg. "},"finish_reason":"stop"}]}`))
	})

	g := newTestGateway(t, mux)

	reply, err := g.Chat(context.Background(), "who directed jaws")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if reply != "Steven Spielberg." {
		t.Errorf("expected trimmed reply, got %q", reply)
	}

	if req.Model != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %q", req.Model)
	}
	if req.Temperature < 0.69 || req.Temperature > 0.71 {
		t.Errorf("expected temperature 0.7, got %v", req.Temperature)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[0].Content, "The Entity") {
		t.Errorf("unexpected system message: %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "user" || req.Messages[1].Content != "who directed jaws" {
		t.Errorf("unexpected user message: %+v", req.Messages[1])
	}
}

func TestChatFailureReturnsFallback(t *testing.T) {
	g := newTestGateway(t, failing(http.StatusBadGateway))

	reply, err := g.Chat(context.Background(), "hello")
	if reply != FallbackReply {
		t.Errorf("expected fallback reply, got %q", reply)
	}
	var nce *NetworkCallError
	if !errors.As(err, &nce) || nce.Call != CallChat {
		t.Errorf("expected chat NetworkCallError, got %v", err)
	}
}

func TestChatNoChoices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	})

	g := newTestGateway(t, mux)

	reply, err := g.Chat(context.Background(), "hello")
	if err == nil || reply != FallbackReply {
		t.Errorf("expected fallback and error, got %q, %v", reply, err)
	}
}

func TestSynthesize(t *testing.T) {
	var body map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte{0xff, 0xfb, 0x90, 0x00})
	})

	g := newTestGateway(t, mux)

	data, err := g.Synthesize(context.Background(), "Steven Spielberg.")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if len(data) != 4 {
		t.Errorf("expected 4 bytes of audio, got %d", len(data))
	}

	if body["model"] != "tts-1" {
		t.Errorf("expected tts-1, got %v", body["model"])
	}
	if body["voice"] != "alloy" {
		t.Errorf("expected alloy voice, got %v", body["voice"])
	}
	if body["response_format"] != "mp3" {
		t.Errorf("expected mp3 format, got %v", body["response_format"])
	}
	if body["input"] != "Steven Spielberg." {
		t.Errorf("unexpected input: %v", body["input"])
	}
}

func TestSynthesizeFailure(t *testing.T) {
	g := newTestGateway(t, failing(http.StatusUnauthorized))

	data, err := g.Synthesize(context.Background(), "hi")
	if data != nil {
		t.Error("expected no audio on failure")
	}
	var nce *NetworkCallError
	if !errors.As(err, &nce) || nce.Call != CallSynthesize {
		t.Errorf("expected synthesize NetworkCallError, got %v", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	g, err := New(Config{APIKey: "sk-x"})
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	cfg := g.Config()
	if cfg.Voice != "alloy" || cfg.Language != "en" || cfg.ChatModel != "gpt-4o" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.SystemPrompt != SystemPrompt {
		t.Error("expected default system prompt")
	}
}
