// ABOUTME: mDNS service discovery for the clipchat control surface
// ABOUTME: Players advertise _clipchat._tcp and remotes browse for them
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is the mDNS service players advertise
	ServiceType = "_clipchat._tcp"

	// ControlPath is the WebSocket path advertised in TXT records
	ControlPath = "/control"
)

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Version     string
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	players chan *PlayerInfo
}

// PlayerInfo describes a discovered player
type PlayerInfo struct {
	Name string
	Host string
	Port int
}

// Addr returns host:port
func (p *PlayerInfo) Addr() string {
	return net.JoinHostPort(p.Host, fmt.Sprintf("%d", p.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		players: make(chan *PlayerInfo, 10),
	}
}

// Advertise advertises this player's control surface via mDNS
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		txtRecords(m.config),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for players until Stop
func (m *Manager) Browse() {
	go m.browseLoop()
}

// browseLoop continuously browses for players
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				if entry.AddrV4 == nil {
					continue
				}
				player := &PlayerInfo{
					Name: entry.Name,
					Host: entry.AddrV4.String(),
					Port: entry.Port,
				}

				log.Printf("Discovered player: %s at %s", player.Name, player.Addr())

				select {
				case m.players <- player:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Timeout = 3 * time.Second
		params.Entries = entries
		params.DisableIPv6 = true

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query error: %v", err)
		}
		close(entries)
	}
}

// Players returns the channel of discovered players
func (m *Manager) Players() <-chan *PlayerInfo {
	return m.players
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// txtRecords builds the advertised TXT records
func txtRecords(config Config) []string {
	txt := []string{"path=" + ControlPath}
	if config.Version != "" {
		txt = append(txt, "version="+config.Version)
	}
	return txt
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
