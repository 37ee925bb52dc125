// ABOUTME: Remote control server for the clip player
// ABOUTME: Serves the clip catalog over HTTP and takes transport commands over WebSocket
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/harperreed/clipchat/internal/catalog"
	"github.com/harperreed/clipchat/internal/discovery"
	"github.com/harperreed/clipchat/internal/playback"
	"github.com/harperreed/clipchat/internal/protocol"
)

const (
	writeDeadline    = 10 * time.Second
	handshakeTimeout = 5 * time.Second
	pingInterval     = 30 * time.Second
)

// Engine is the playback surface the remote drives
type Engine interface {
	State() playback.State
	Clips() []catalog.Clip
	SelectClipByID(id string) bool
	Seek(target float64)
	SeekRatio(ratio float64)
	TogglePlayPause()
	OnStateChange(fn func(playback.State))
}

// Fetcher resolves thumbnail URLs to local files
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	Version    string
	EnableMDNS bool
}

// Server exposes the engine to remote controllers
type Server struct {
	config   Config
	serverID string
	engine   Engine
	fetcher  Fetcher
	upgrader websocket.Upgrader
	router   chi.Router

	clients   map[string]*Client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager
	wg          sync.WaitGroup
}

// Client is a connected remote
type Client struct {
	ID       string
	Name     string
	Conn     *websocket.Conn
	sendChan chan interface{}
}

// New creates a server and subscribes it to engine state changes
func New(config Config, engine Engine, fetcher Fetcher) *Server {
	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		engine:   engine,
		fetcher:  fetcher,
		upgrader: websocket.Upgrader{
			// Local network control surface; browsers on the LAN are allowed
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*Client),
	}

	r := chi.NewRouter()
	// Request logs follow the process log output rather than stdout
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Default(), NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/api/clips", s.handleClips)
	r.Get("/api/state", s.handleState)
	r.Get("/api/clips/{id}/thumbnail", s.handleThumbnail)
	r.Get(discovery.ControlPath, s.handleWebSocket)
	s.router = r

	engine.OnStateChange(s.broadcastState)
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx ends
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Version:     s.config.Version,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	httpServer := &http.Server{Handler: s.router}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	log.Printf("Remote control listening on %s", listener.Addr())

	var serverErr error
	select {
	case <-ctx.Done():
		log.Printf("Remote control shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.closeClients()
	s.wg.Wait()

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// ClientCount returns the number of connected remotes
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleClips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Clips())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StateMessage(s.engine.State()))
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var clip *catalog.Clip
	for _, c := range s.engine.Clips() {
		if c.ID == id {
			c := c
			clip = &c
			break
		}
	}
	if clip == nil || clip.ThumbnailRef == "" || s.fetcher == nil {
		http.NotFound(w, r)
		return
	}

	path, err := s.fetcher.Fetch(r.Context(), clip.ThumbnailRef)
	if err != nil {
		log.Printf("Thumbnail fetch failed for %s: %v", id, err)
		http.Error(w, "Thumbnail unavailable", http.StatusBadGateway)
		return
	}

	http.ServeFile(w, r, path)
}

// handleWebSocket upgrades and runs a control connection
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New control connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection performs the handshake and reads commands
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	env, err := protocol.Decode(data)
	if err != nil || env.Type != protocol.TypeClientHello {
		log.Printf("Expected client/hello, got %q (%v)", env.Type, err)
		return
	}

	var hello protocol.ClientHello
	if err := env.DecodePayload(&hello); err != nil {
		log.Printf("Error decoding client hello: %v", err)
		return
	}
	if hello.ClientID == "" || hello.Name == "" {
		log.Printf("Client hello missing client_id or name")
		return
	}

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, 100),
	}

	s.clientsMu.Lock()
	if _, exists := s.clients[client.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected, rejecting duplicate", client.ID)
		writeDirect(conn, protocol.Message{
			Type: protocol.TypeServerError,
			Payload: protocol.ServerError{
				Error:   "duplicate_client_id",
				Message: "Client ID already connected",
			},
		})
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	log.Printf("Remote connected: %s (ID: %s)", client.Name, client.ID)

	defer func() {
		s.clientsMu.Lock()
		if s.clients[client.ID] == client {
			delete(s.clients, client.ID)
			close(client.sendChan)
		}
		s.clientsMu.Unlock()
		log.Printf("Remote disconnected: %s", client.Name)
	}()

	s.sendMessage(client, protocol.TypeServerHello, protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
	})
	s.sendMessage(client, protocol.TypePlaybackState, StateMessage(s.engine.State()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		s.handleClientMessage(client, data)
	}
}

// clientWriter sends queued messages and keepalive pings
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage applies one remote command
func (s *Server) handleClientMessage(client *Client, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		s.sendError(client, "invalid_message", err.Error())
		return
	}

	switch env.Type {
	case protocol.TypeClipSelect:
		var sel protocol.ClipSelect
		if err := env.DecodePayload(&sel); err != nil {
			s.sendError(client, "invalid_payload", err.Error())
			return
		}
		if !s.engine.SelectClipByID(sel.ClipID) {
			s.sendError(client, "unknown_clip", fmt.Sprintf("no clip %q", sel.ClipID))
		}

	case protocol.TypeTransportSeek:
		var seek protocol.TransportSeek
		if err := env.DecodePayload(&seek); err != nil {
			s.sendError(client, "invalid_payload", err.Error())
			return
		}
		s.engine.Seek(seek.Position)

	case protocol.TypeTransportSeekRatio:
		var seek protocol.TransportSeekRatio
		if err := env.DecodePayload(&seek); err != nil {
			s.sendError(client, "invalid_payload", err.Error())
			return
		}
		if seek.Ratio < 0 || seek.Ratio > 1 {
			s.sendError(client, "invalid_payload", "ratio must be within 0..1")
			return
		}
		s.engine.SeekRatio(seek.Ratio)

	case protocol.TypeTransportToggle:
		s.engine.TogglePlayPause()

	default:
		log.Printf("Unknown message type from %s: %s", client.Name, env.Type)
		s.sendError(client, "unknown_type", env.Type)
	}
}

// broadcastState fans a state change out to every remote
func (s *Server) broadcastState(st playback.State) {
	msg := StateMessage(st)

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		s.sendMessage(client, protocol.TypePlaybackState, msg)
	}
}

func (s *Server) sendError(client *Client, code, message string) {
	s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{Error: code, Message: message})
}

// sendMessage queues a message without blocking; slow remotes miss updates
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) {
	select {
	case client.sendChan <- protocol.Message{Type: msgType, Payload: payload}:
	default:
		log.Printf("Send buffer full for %s, dropping %s", client.Name, msgType)
	}
}

// closeClients drops every connection so readers return
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
}

// StateMessage converts engine state to its wire form
func StateMessage(st playback.State) protocol.PlaybackState {
	return protocol.PlaybackState{
		Bound:        st.Bound,
		Kind:         string(st.Kind),
		Position:     st.Position,
		Duration:     st.Duration,
		Progress:     playback.Progress(st.Position, st.Duration),
		Playing:      st.Playing,
		ActiveClipID: st.ActiveClipID(),
		FineGrained:  st.FineGrained,
		EmbedURL:     st.EmbedURL,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeDirect(conn *websocket.Conn, msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	conn.WriteMessage(websocket.TextMessage, data)
}
