// ABOUTME: Command line remote for a running ClipChat player
// ABOUTME: Finds the player via mDNS or -server, sends one command and prints state
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/clipchat/internal/client"
	"github.com/harperreed/clipchat/internal/discovery"
	"github.com/harperreed/clipchat/internal/playback"
	"github.com/harperreed/clipchat/internal/protocol"
	"github.com/harperreed/clipchat/internal/version"
)

var (
	serverAddr = flag.String("server", "", "Player address host:port (skip mDNS)")
	name       = flag.String("name", "clipchat-remote", "Remote name")
	selectClip = flag.String("select", "", "Select the clip with this id")
	seek       = flag.Float64("seek", -1, "Seek to this position in seconds")
	ratio      = flag.Float64("ratio", -1, "Seek to this fraction of the duration (0..1)")
	toggle     = flag.Bool("toggle", false, "Toggle play/pause")
	watch      = flag.Bool("watch", false, "Keep printing state updates")
	timeout    = flag.Duration("timeout", 5*time.Second, "Discovery and response timeout")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime)

	addr := *serverAddr
	if addr == "" {
		var err error
		addr, err = discover(*timeout)
		if err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
	}

	c := client.NewClient(client.Config{
		ServerAddr: addr,
		ClientID:   uuid.New().String(),
		Name:       *name,
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     version.Product + " Remote",
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	})
	if err := c.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer c.Close()

	// The server pushes the current state right after the handshake
	if st, ok := waitState(c, *timeout); ok {
		printState(st)
	}

	sent, err := sendCommand(c)
	if err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	if sent {
		if st, ok := waitState(c, *timeout); ok {
			printState(st)
		}
	}

	for *watch && c.IsConnected() {
		if st, ok := waitState(c, time.Hour); ok {
			printState(st)
		}
	}
}

// discover browses for a player and returns its address
func discover(wait time.Duration) (string, error) {
	log.Printf("Searching for players...")
	disc := discovery.NewManager(discovery.Config{})
	disc.Browse()
	defer disc.Stop()

	select {
	case p := <-disc.Players():
		log.Printf("Found %s at %s", p.Name, p.Addr())
		return p.Addr(), nil
	case <-time.After(wait):
		return "", fmt.Errorf("no player found after %v", wait)
	}
}

// sendCommand sends the command selected by flags, reporting whether one was sent
func sendCommand(c *client.Client) (bool, error) {
	switch {
	case *selectClip != "":
		return true, c.SelectClip(*selectClip)
	case *seek >= 0:
		return true, c.Seek(*seek)
	case *ratio >= 0:
		if *ratio > 1 {
			return false, fmt.Errorf("-ratio must be between 0 and 1")
		}
		return true, c.SeekRatio(*ratio)
	case *toggle:
		return true, c.Toggle()
	}
	return false, nil
}

// waitState returns the next state, printing any server error that arrives first
func waitState(c *client.Client, wait time.Duration) (protocol.PlaybackState, bool) {
	select {
	case st := <-c.States:
		return st, true
	case serr := <-c.Errors:
		fmt.Fprintf(os.Stderr, "error: %s: %s\n", serr.Error, serr.Message)
	case <-time.After(wait):
	}
	return protocol.PlaybackState{}, false
}

func printState(st protocol.PlaybackState) {
	if !st.Bound {
		fmt.Println("no media loaded")
		return
	}

	state := "paused"
	if st.Playing {
		state = "playing"
	}
	clip := st.ActiveClipID
	if clip == "" {
		clip = "-"
	}
	fmt.Printf("%-7s clip=%-8s %s / %s (%.0f%%)\n",
		state, clip,
		playback.FormatTime(st.Position),
		playback.FormatTime(st.Duration),
		st.Progress*100)
}
