// ABOUTME: Gateway to the hosted AI provider
// ABOUTME: Transcription, chat completion and speech synthesis with no retry logic
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/harperreed/clipchat/internal/credential"
	"github.com/harperreed/clipchat/pkg/audio"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// FallbackReply is returned when the chat call fails
	FallbackReply = "I'm sorry, I couldn't process your request at this time."

	// SystemPrompt frames the assistant for the movie database app
	SystemPrompt = "You are a helpful AI assistant for The Entity, a movie database application. " +
		"Provide concise, informative responses about movies, actors, directors, and film history. " +
		"Keep responses under 150 words."

	DefaultChatModel   = openai.GPT4o
	DefaultVoice       = "alloy"
	DefaultLanguage    = "en"
	DefaultTemperature = 0.7
)

// Call names used in NetworkCallError
const (
	CallTranscribe = "transcribe"
	CallChat       = "chat"
	CallSynthesize = "synthesize"
)

// NetworkCallError reports a failed collaborator call
type NetworkCallError struct {
	Call string
	Err  error
}

func (e *NetworkCallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Call, e.Err)
}

func (e *NetworkCallError) Unwrap() error {
	return e.Err
}

// Config holds gateway configuration, passed in explicitly at startup
type Config struct {
	APIKey       string
	BaseURL      string
	ChatModel    string
	Voice        string
	Language     string
	SystemPrompt string
	Temperature  float32
}

// DefaultConfig returns the standard configuration for apiKey
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:       apiKey,
		ChatModel:    DefaultChatModel,
		Voice:        DefaultVoice,
		Language:     DefaultLanguage,
		SystemPrompt: SystemPrompt,
		Temperature:  DefaultTemperature,
	}
}

// Gateway maps requests onto the provider API
type Gateway struct {
	client *openai.Client
	config Config
}

// New validates the credential and creates a gateway
func New(config Config) (*Gateway, error) {
	if err := credential.Validate(config.APIKey); err != nil {
		return nil, err
	}

	defaults := DefaultConfig(config.APIKey)
	if config.ChatModel == "" {
		config.ChatModel = defaults.ChatModel
	}
	if config.Voice == "" {
		config.Voice = defaults.Voice
	}
	if config.Language == "" {
		config.Language = defaults.Language
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = defaults.SystemPrompt
	}
	if config.Temperature == 0 {
		config.Temperature = defaults.Temperature
	}

	clientConfig := openai.DefaultConfig(strings.TrimSpace(config.APIKey))
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Gateway{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Config returns the active configuration
func (g *Gateway) Config() Config {
	return g.config
}

// Transcribe converts a recording to text. On failure it returns "".
func (g *Gateway) Transcribe(ctx context.Context, unit audio.Unit) (string, error) {
	if unit.Empty() {
		return "", &NetworkCallError{Call: CallTranscribe, Err: fmt.Errorf("empty recording")}
	}

	filename := unit.Filename
	if filename == "" {
		filename = "recording.wav"
	}

	resp, err := g.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(unit.Data),
		FilePath: filename,
		Language: g.config.Language,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		log.Printf("Transcription failed: %v", err)
		return "", &NetworkCallError{Call: CallTranscribe, Err: err}
	}

	return strings.TrimSpace(resp.Text), nil
}

// Chat sends the transcript and returns the reply. On failure it returns
// FallbackReply alongside the error.
func (g *Gateway) Chat(ctx context.Context, transcript string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: g.config.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: transcript,
			},
		},
		Temperature: g.config.Temperature,
	})
	if err != nil {
		log.Printf("Chat completion failed: %v", err)
		return FallbackReply, &NetworkCallError{Call: CallChat, Err: err}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return FallbackReply, &NetworkCallError{Call: CallChat, Err: fmt.Errorf("no reply in response")}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Synthesize turns text into MP3 audio. On failure it returns nil.
func (g *Gateway) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := g.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.SpeechVoice(g.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		log.Printf("Speech synthesis failed: %v", err)
		return nil, &NetworkCallError{Call: CallSynthesize, Err: err}
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, &NetworkCallError{Call: CallSynthesize, Err: fmt.Errorf("read speech: %w", err)}
	}
	if len(data) == 0 {
		return nil, &NetworkCallError{Call: CallSynthesize, Err: fmt.Errorf("empty speech response")}
	}

	return data, nil
}
