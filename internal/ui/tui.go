// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the intent channel back to main
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// IntentKind identifies a user request raised by the TUI
type IntentKind int

const (
	IntentTogglePlay IntentKind = iota
	IntentSeek
	IntentSeekRatio
	IntentSelectClip
	IntentVolume
	IntentToggleMic
	IntentReplay
	IntentSaveKey
)

// Intent is a user request for main to carry out
type Intent struct {
	Kind   IntentKind
	Value  float64 // seek seconds, seek ratio or effective volume
	ClipID string
	Key    string
}

// Controls holds channels from the TUI back to the application
type Controls struct {
	Intents chan Intent
	Quit    chan struct{}
}

// NewControls creates the control channels
func NewControls() *Controls {
	return &Controls{
		Intents: make(chan Intent, 32),
		Quit:    make(chan struct{}, 1),
	}
}

// Run creates the TUI program
func Run(ctrl *Controls, config Config) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl, config), tea.WithAltScreen(), tea.WithMouseCellMotion())
	return p, nil
}
