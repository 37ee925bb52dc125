// ABOUTME: WebSocket client for the clipchat remote control surface
// ABOUTME: Handles connection, handshake, commands and state updates
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harperreed/clipchat/internal/discovery"
	"github.com/harperreed/clipchat/internal/protocol"
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	DeviceInfo protocol.DeviceInfo
}

// Client is a remote controller connection
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// writeMu serializes writes; the connection allows one writer
	writeMu sync.Mutex

	// States receives every playback/state broadcast
	States chan protocol.PlaybackState
	// Errors receives server/error replies
	Errors chan protocol.ServerError

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		States: make(chan protocol.PlaybackState, 10),
		Errors: make(chan protocol.ServerError, 10),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: discovery.ControlPath}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID:   c.config.ClientID,
		Name:       c.config.Name,
		Version:    protocol.Version,
		DeviceInfo: &c.config.DeviceInfo,
	}

	if err := c.send(protocol.TypeClientHello, hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	env, err := protocol.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	if env.Type == protocol.TypeServerError {
		var serr protocol.ServerError
		env.DecodePayload(&serr)
		return fmt.Errorf("rejected: %s", serr.Message)
	}
	if env.Type != protocol.TypeServerHello {
		return fmt.Errorf("expected server/hello, got %s", env.Type)
	}

	var serverHello protocol.ServerHello
	if err := env.DecodePayload(&serverHello); err != nil {
		return err
	}

	log.Printf("Handshake complete with %s", serverHello.Name)
	return nil
}

// send writes one message
func (c *Client) send(msgType string, payload interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(protocol.Message{Type: msgType, Payload: payload})
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Read error: %v", err)
			}
			return
		}

		c.handleMessage(data)
	}
}

// handleMessage routes JSON messages
func (c *Client) handleMessage(data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Printf("Failed to parse message: %v", err)
		return
	}

	switch env.Type {
	case protocol.TypePlaybackState:
		var st protocol.PlaybackState
		if err := json.Unmarshal(env.Payload, &st); err != nil {
			log.Printf("Invalid playback state: %v", err)
			return
		}
		select {
		case c.States <- st:
		case <-c.ctx.Done():
		default:
			// Keep the freshest state when the consumer lags
			select {
			case <-c.States:
			default:
			}
			c.States <- st
		}

	case protocol.TypeServerError:
		var serr protocol.ServerError
		if err := json.Unmarshal(env.Payload, &serr); err != nil {
			return
		}
		select {
		case c.Errors <- serr:
		default:
			log.Printf("Server error: %s: %s", serr.Error, serr.Message)
		}

	default:
		log.Printf("Unknown message type: %s", env.Type)
	}
}

// SelectClip asks the player to jump to clipID
func (c *Client) SelectClip(clipID string) error {
	return c.send(protocol.TypeClipSelect, protocol.ClipSelect{ClipID: clipID})
}

// Seek seeks to position seconds
func (c *Client) Seek(position float64) error {
	return c.send(protocol.TypeTransportSeek, protocol.TransportSeek{Position: position})
}

// SeekRatio seeks to a fraction of the duration
func (c *Client) SeekRatio(ratio float64) error {
	return c.send(protocol.TypeTransportSeekRatio, protocol.TransportSeekRatio{Ratio: ratio})
}

// Toggle toggles play/pause
func (c *Client) Toggle() error {
	return c.send(protocol.TypeTransportToggle, nil)
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
