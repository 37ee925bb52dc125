// ABOUTME: Entry point for the ClipChat player
// ABOUTME: Parses CLI flags and wires playback, voice chat, remote control and the TUI
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/clipchat/internal/capture"
	"github.com/harperreed/clipchat/internal/catalog"
	"github.com/harperreed/clipchat/internal/credential"
	"github.com/harperreed/clipchat/internal/fetch"
	"github.com/harperreed/clipchat/internal/gateway"
	"github.com/harperreed/clipchat/internal/media"
	"github.com/harperreed/clipchat/internal/notice"
	"github.com/harperreed/clipchat/internal/playback"
	"github.com/harperreed/clipchat/internal/remote"
	"github.com/harperreed/clipchat/internal/ui"
	"github.com/harperreed/clipchat/internal/version"
	"github.com/harperreed/clipchat/internal/voicechat"
	"github.com/harperreed/clipchat/pkg/audio"
	"github.com/harperreed/clipchat/pkg/audio/input"
	"github.com/harperreed/clipchat/pkg/audio/output"
)

var (
	catalogPath   = flag.String("catalog", "", "Clip catalog JSON file (default: built-in ocean clips)")
	mediaURI      = flag.String("media", "", "Override the catalog media URI (local mp3 path or URL)")
	embedDuration = flag.Duration("embed-duration", 25*time.Second, "Reported duration for embedded sources")
	modeFlag      = flag.String("mode", "streaming", "Capture mode: batch or streaming")
	cadence       = flag.Duration("cadence", time.Second, "Streaming chunk cadence")
	voice         = flag.String("voice", gateway.DefaultVoice, "Speech synthesis voice")
	language      = flag.String("language", gateway.DefaultLanguage, "Transcription language")
	chatModel     = flag.String("chat-model", gateway.DefaultChatModel, "Chat completion model")
	baseURL       = flag.String("base-url", "", "OpenAI API base URL (default: api.openai.com)")
	dbPath        = flag.String("db", "", "Credential store path (default: user config dir)")
	remotePort    = flag.Int("remote-port", 8928, "Remote control port (0 disables)")
	enableMDNS    = flag.Bool("mdns", true, "Advertise the remote control via mDNS")
	name          = flag.String("name", "", "Player friendly name (default: hostname-clipchat)")
	logFile       = flag.String("log-file", "clipchat.log", "Log file path")
	noTUI         = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	mode, err := capture.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("Invalid -mode: %v", err)
	}

	cat, err := loadCatalog()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	playerName := *name
	if playerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		playerName = fmt.Sprintf("%s-clipchat", hostname)
	}

	log.Printf("Starting %s %s: %s (%d clips, %s capture)", version.Product, version.Version, playerName, len(cat.Clips), mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// TUI setup
	var tuiProg *tea.Program
	ctrl := ui.NewControls()

	remoteAddr := ""
	if *remotePort > 0 {
		remoteAddr = fmt.Sprintf(":%d", *remotePort)
	}

	if useTUI {
		tuiProg, err = ui.Run(ctrl, ui.Config{
			Title:   version.Product,
			Version: version.Version,
			Mode:    mode.String(),
			Remote:  remoteAddr,
		})
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	}

	// Helper to update TUI
	updateTUI := func(msg tea.Msg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	raise := func(n notice.Notice) {
		log.Printf("Notice [%s]: %s", n.Level, n.Message)
		updateTUI(ui.NoticeMsg{Notice: n})
	}

	// Media fetching and audio output
	cache, err := fetch.NewCache("")
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}
	defer func() { _ = cache.Cleanup() }()

	device := output.NewOto()
	defer func() { _ = device.Close() }()

	element := media.NewElement(device, cache)
	defer func() { _ = element.Close() }()

	engine := playback.NewEngine(element, playback.Config{
		EmbedFallbackDuration: embedDuration.Seconds(),
	})
	engine.OnStateChange(func(st playback.State) {
		updateTUI(ui.PlaybackMsg{State: st})
	})
	go engine.Run(ctx)

	updateTUI(ui.ClipsMsg{Clips: cat.Clips})

	first := cat.Clips[0]
	if err := engine.LoadSource(cat.Source, cat.Clips, &first); err != nil {
		log.Printf("Failed to load media %s: %v", cat.Source.URI, err)
		raise(notice.Error("Could not load media: " + err.Error()))
	}

	// Credential store
	path := *dbPath
	if path == "" {
		path = credential.DefaultDBPath()
	}
	store, err := credential.OpenSQLite(path)
	if err != nil {
		log.Fatalf("Failed to open credential store: %v", err)
	}
	defer func() { _ = store.Close() }()

	// Voice chat
	provider := &providerSwitch{}

	session, err := capture.NewSession(input.NewMalgo(), provider, capture.Config{
		Mode:    mode,
		Cadence: *cadence,
	})
	if err != nil {
		log.Fatalf("Failed to create capture session: %v", err)
	}

	replies := media.NewReplyPlayer(device)

	orch := voicechat.New(session, replies, voicechat.Config{
		OnNotice: raise,
		OnStatus: func(st voicechat.Status) {
			updateTUI(ui.ChatMsg{Status: st})
		},
	})
	go orch.Run(ctx)

	gatewayConfig := func(key string) gateway.Config {
		cfg := gateway.DefaultConfig(key)
		cfg.BaseURL = *baseURL
		cfg.ChatModel = *chatModel
		cfg.Voice = *voice
		cfg.Language = *language
		return cfg
	}

	var invalid *credential.ValidationError
	key, err := credential.Load(ctx, store)
	switch {
	case err == nil:
		if err := attachGateway(orch, provider, gatewayConfig(key)); err != nil {
			log.Printf("Stored credential rejected: %v", err)
		} else {
			log.Printf("Loaded stored API key")
		}
	case errors.As(err, &invalid):
		log.Printf("No usable API key: %v", err)
		raise(notice.Info(credential.Prompt))
	default:
		log.Printf("Failed to read credential: %v", err)
	}

	// Remote control
	if *remotePort > 0 {
		srv := remote.New(remote.Config{
			Port:       *remotePort,
			Name:       playerName,
			Version:    version.Version,
			EnableMDNS: *enableMDNS,
		}, engine, cache)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("Remote control error: %v", err)
				raise(notice.Error("Remote control unavailable"))
			}
		}()
	}

	// Intent dispatch from the TUI
	if useTUI {
		go handleIntents(ctx, ctrl, engine, orch, replies, func(key string) {
			if err := credential.Save(ctx, store, key); err != nil {
				log.Printf("Failed to save API key: %v", err)
				raise(notice.Error("Failed to save API key"))
				return
			}
			if err := attachGateway(orch, provider, gatewayConfig(key)); err != nil {
				raise(notice.Error(credential.Prompt))
				return
			}
			raise(notice.Success("API key saved"))
		})
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctrl.Quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
		if tuiProg != nil {
			tuiProg.Quit()
		}
	}

	cancel()
	if session.Recording() {
		session.Stop()
	}
	replies.Stop()

	log.Printf("Player stopped")
}

// loadCatalog reads -catalog (or the built-in set) and applies -media
func loadCatalog() (*catalog.Catalog, error) {
	cat := catalog.Default()
	if *catalogPath != "" {
		loaded, err := catalog.Load(*catalogPath)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}

	if *mediaURI != "" {
		cat.Source = catalog.MediaSource{URI: *mediaURI, Kind: catalog.KindDirect}
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// attachGateway builds a provider from cfg and hands it to the chat flow
func attachGateway(orch *voicechat.Orchestrator, provider *providerSwitch, cfg gateway.Config) error {
	g, err := gateway.New(cfg)
	if err != nil {
		return err
	}
	provider.set(g)
	orch.SetGateway(g)
	return nil
}

// handleIntents carries out requests raised by the TUI
func handleIntents(ctx context.Context, ctrl *ui.Controls, engine *playback.Engine, orch *voicechat.Orchestrator,
	replies *media.ReplyPlayer, saveKey func(string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-ctrl.Intents:
			switch in.Kind {
			case ui.IntentTogglePlay:
				engine.TogglePlayPause()
			case ui.IntentSeek:
				engine.Seek(in.Value)
			case ui.IntentSeekRatio:
				engine.SeekRatio(in.Value)
			case ui.IntentSelectClip:
				if !engine.SelectClipByID(in.ClipID) {
					log.Printf("Unknown clip: %s", in.ClipID)
				}
			case ui.IntentVolume:
				engine.SetVolume(in.Value)
			case ui.IntentToggleMic:
				replies.Stop()
				// Credential and device failures are announced by the orchestrator
				if err := orch.ToggleCapture(); err != nil {
					log.Printf("Capture toggle failed: %v", err)
				}
			case ui.IntentReplay:
				go func() {
					if err := orch.ReplayRecording(ctx); err != nil {
						log.Printf("Replay failed: %v", err)
					}
				}()
			case ui.IntentSaveKey:
				saveKey(in.Key)
			}
		}
	}
}

// providerSwitch lets the capture session transcribe through whichever
// gateway is current, including one attached after startup
type providerSwitch struct {
	current atomic.Pointer[gateway.Gateway]
}

func (p *providerSwitch) set(g *gateway.Gateway) {
	p.current.Store(g)
}

// Transcribe forwards to the current gateway
func (p *providerSwitch) Transcribe(ctx context.Context, unit audio.Unit) (string, error) {
	g := p.current.Load()
	if g == nil {
		return "", voicechat.ErrNoCredential
	}
	return g.Transcribe(ctx, unit)
}
