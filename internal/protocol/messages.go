// ABOUTME: Remote control message type definitions
// ABOUTME: Envelope and payload structs exchanged over the control WebSocket
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version of the control protocol
const Version = 1

// Message types
const (
	TypeClientHello        = "client/hello"
	TypeServerHello        = "server/hello"
	TypeServerError        = "server/error"
	TypeClipSelect         = "clip/select"
	TypeTransportSeek      = "transport/seek"
	TypeTransportSeekRatio = "transport/seek_ratio"
	TypeTransportToggle    = "transport/toggle"
	TypePlaybackState      = "playback/state"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Envelope is a received message with its payload still encoded
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode parses a raw message into an envelope
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid message: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("message missing type")
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into v
func (e Envelope) DecodePayload(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", e.Type, err)
	}
	return nil
}

// ClientHello is sent by remotes to initiate the handshake
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the player's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerError reports a rejected message
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ClipSelect asks the player to jump to a clip
type ClipSelect struct {
	ClipID string `json:"clip_id"`
}

// TransportSeek seeks to a position in seconds
type TransportSeek struct {
	Position float64 `json:"position"`
}

// TransportSeekRatio seeks to a fraction of the duration (progress bar click)
type TransportSeekRatio struct {
	Ratio float64 `json:"ratio"`
}

// PlaybackState is broadcast after every engine change
type PlaybackState struct {
	Bound        bool    `json:"bound"`
	Kind         string  `json:"kind"`
	Position     float64 `json:"position"`
	Duration     float64 `json:"duration"`
	Progress     float64 `json:"progress"`
	Playing      bool    `json:"playing"`
	ActiveClipID string  `json:"active_clip_id,omitempty"`
	FineGrained  bool    `json:"fine_grained"`
	EmbedURL     string  `json:"embed_url,omitempty"`
}
