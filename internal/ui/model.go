// ABOUTME: Bubbletea model for the clip player TUI
// ABOUTME: Clip list, transport bar, voice chat card, credential prompt and notices
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/clipchat/internal/catalog"
	"github.com/harperreed/clipchat/internal/credential"
	"github.com/harperreed/clipchat/internal/notice"
	"github.com/harperreed/clipchat/internal/playback"
	"github.com/harperreed/clipchat/internal/voicechat"
)

const (
	noticeLifetime = 4 * time.Second
	seekStep       = 5.0
	volumeStep     = 0.1
	barWidth       = 40
)

// Config holds static TUI settings
type Config struct {
	Title   string
	Version string
	Mode    string // capture mode label
	Remote  string // remote control address, empty when disabled
}

// PlaybackMsg carries a new engine state
type PlaybackMsg struct {
	State playback.State
}

// ClipsMsg carries the clip list
type ClipsMsg struct {
	Clips []catalog.Clip
}

// ChatMsg carries a voice chat status snapshot
type ChatMsg struct {
	Status voicechat.Status
}

// NoticeMsg shows a transient notice
type NoticeMsg struct {
	Notice notice.Notice
}

// clearNoticeMsg expires the notice raised at the given time
type clearNoticeMsg struct {
	at time.Time
}

// Model represents the TUI state
type Model struct {
	config Config
	ctrl   *Controls

	// Catalog
	clips  []catalog.Clip
	cursor int

	// Playback
	playback playback.State
	volume   *playback.Volume

	// Voice chat
	chat voicechat.Status

	// Credential prompt
	enteringKey bool
	keyInput    string

	// Notices
	notice *notice.Notice

	// Dimensions
	width  int
	height int
}

// NewModel creates a new TUI model. ctrl may be nil in tests.
func NewModel(ctrl *Controls, config Config) Model {
	if config.Title == "" {
		config.Title = "ClipChat"
	}
	return Model{
		config: config,
		ctrl:   ctrl,
		volume: playback.NewVolume(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.enteringKey {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case PlaybackMsg:
		m.playback = msg.State

	case ClipsMsg:
		m.clips = msg.Clips
		if m.cursor >= len(m.clips) {
			m.cursor = 0
		}

	case ChatMsg:
		m.chat = msg.Status

	case NoticeMsg:
		cmd := m.showNotice(msg.Notice)
		return m, cmd

	case clearNoticeMsg:
		if m.notice != nil && m.notice.At.Equal(msg.at) {
			m.notice = nil
		}
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	header := titleStyle.Render(m.config.Title)
	if m.config.Version != "" {
		header += dimStyle.Render(" v" + m.config.Version)
	}
	if m.config.Remote != "" {
		header += dimStyle.Render("  remote: " + m.config.Remote)
	}
	b.WriteString(header + "\n\n")

	b.WriteString(m.renderNowPlaying() + "\n")
	b.WriteString(m.renderTransport() + "\n")
	b.WriteString(m.renderClipList() + "\n")
	b.WriteString(m.renderChat() + "\n")

	if m.enteringKey {
		b.WriteString(m.renderPrompt() + "\n")
	}
	if m.notice != nil {
		b.WriteString(renderNotice(*m.notice) + "\n")
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

// renderNowPlaying renders the active clip card
func (m Model) renderNowPlaying() string {
	body := dimStyle.Render("No clip selected")
	if clip := m.playback.ActiveClip; clip != nil {
		body = activeStyle.Render(clip.Title) + "\n" + clip.Description
	}
	if !m.playback.Bound {
		body = dimStyle.Render("No media loaded")
	}
	return panelStyle.Render(panelTitleStyle.Render("Now Playing") + "\n" + body)
}

// renderTransport renders play state, progress and volume
func (m Model) renderTransport() string {
	st := m.playback

	icon := "▶"
	if st.Playing {
		icon = "⏸"
	}

	line := fmt.Sprintf("%s [%s] %s / %s",
		icon,
		renderBar(playback.Progress(st.Position, st.Duration), barWidth),
		playback.FormatTime(st.Position),
		playback.FormatTime(st.Duration))

	vol := fmt.Sprintf("Volume: %3.0f%%", m.volume.Level()*100)
	if m.volume.Muted() {
		vol = "Volume: muted"
	}

	s := line + "\n" + vol
	if st.Bound && !st.FineGrained {
		s += "\n" + dimStyle.Render("Embedded source: seeking and auto-advance unavailable")
		if st.EmbedURL != "" {
			s += "\n" + dimStyle.Render(st.EmbedURL)
		}
	}
	return s
}

// renderClipList renders the catalog with ranges and the active marker
func (m Model) renderClipList() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Clips") + "\n")

	if len(m.clips) == 0 {
		b.WriteString(dimStyle.Render("(empty catalog)"))
		return panelStyle.Render(b.String())
	}

	active := m.playback.ActiveClipID()
	for i, clip := range m.clips {
		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
		}

		title := truncate(clip.Title, 32)
		if clip.ID == active {
			title = activeStyle.Render(title + " ♪")
		}

		b.WriteString(fmt.Sprintf("%s%-34s %s", pointer, title, dimStyle.Render(playback.FormatRange(clip))))
		if i < len(m.clips)-1 {
			b.WriteString("\n")
		}
	}

	return panelStyle.Render(b.String())
}

// renderChat renders the mic state and the current turn
func (m Model) renderChat() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Voice Chat") + dimStyle.Render(" ("+m.config.Mode+")") + "\n")

	switch {
	case !m.chat.HasCredential:
		b.WriteString(dimStyle.Render("No API key, press k to enter one"))
	case m.chat.Recording:
		b.WriteString(recordingStyle.Render("● Listening"))
		if m.chat.Partial != "" {
			b.WriteString("\n" + partialStyle.Render(m.chat.Partial))
		}
	case m.chat.Processing:
		b.WriteString(partialStyle.Render("… Processing"))
	default:
		b.WriteString(dimStyle.Render("○ Mic ready"))
	}

	if m.chat.Turn.Transcript != "" {
		b.WriteString("\n\n" + dimStyle.Render("You: ") + m.chat.Turn.Transcript)
	}
	if m.chat.Turn.Reply != "" {
		b.WriteString("\n" + dimStyle.Render("AI:  ") + lipgloss.NewStyle().Width(70).Render(m.chat.Turn.Reply))
	}

	return panelStyle.Render(b.String())
}

// renderPrompt renders the credential entry line
func (m Model) renderPrompt() string {
	masked := strings.Repeat("•", len(m.keyInput))
	return panelStyle.Render(panelTitleStyle.Render("OpenAI API key") + "\n" + masked + "█\n" +
		dimStyle.Render("enter: save  esc: cancel"))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	keys := []struct{ key, desc string }{
		{"space", "play/pause"},
		{"↑/↓", "clip"},
		{"enter", "select"},
		{"←/→", "seek"},
		{"0-9", "jump"},
		{"+/-", "volume"},
		{"m", "mute"},
		{"r", "talk"},
		{"p", "replay"},
		{"k", "api key"},
		{"q", "quit"},
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = footerKeyStyle.Render(k.key) + " " + footerDescStyle.Render(k.desc)
	}
	return strings.Join(parts, "  ")
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit

	case " ":
		m.send(Intent{Kind: IntentTogglePlay})

	case "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down":
		if m.cursor < len(m.clips)-1 {
			m.cursor++
		}

	case "enter":
		if m.cursor < len(m.clips) {
			m.send(Intent{Kind: IntentSelectClip, ClipID: m.clips[m.cursor].ID})
		}

	case "left":
		m.send(Intent{Kind: IntentSeek, Value: m.playback.Position - seekStep})

	case "right":
		m.send(Intent{Kind: IntentSeek, Value: m.playback.Position + seekStep})

	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.send(Intent{Kind: IntentSeekRatio, Value: float64(msg.String()[0]-'0') / 10})

	case "+", "=":
		m.volume.Set(m.volume.Level() + volumeStep)
		m.send(Intent{Kind: IntentVolume, Value: m.volume.Effective()})

	case "-":
		m.volume.Set(m.volume.Level() - volumeStep)
		m.send(Intent{Kind: IntentVolume, Value: m.volume.Effective()})

	case "m":
		m.volume.ToggleMute()
		m.send(Intent{Kind: IntentVolume, Value: m.volume.Effective()})

	case "r":
		// Capture start is disabled while a turn is in flight
		if m.chat.Processing && !m.chat.Recording {
			cmd := m.showNotice(notice.Info(voicechat.MsgProcessing))
			return m, cmd
		}
		m.send(Intent{Kind: IntentToggleMic})

	case "p":
		m.send(Intent{Kind: IntentReplay})

	case "k":
		m.enteringKey = true
		m.keyInput = ""
	}

	return m, nil
}

// handlePromptKey handles input while the credential prompt is open
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.handleKey(msg)

	case tea.KeyEsc:
		m.enteringKey = false
		m.keyInput = ""

	case tea.KeyEnter:
		key := strings.TrimSpace(m.keyInput)
		if err := credential.Validate(key); err != nil {
			cmd := m.showNotice(notice.Error(credential.Prompt))
			return m, cmd
		}
		m.enteringKey = false
		m.keyInput = ""
		m.send(Intent{Kind: IntentSaveKey, Key: key})

	case tea.KeyBackspace:
		if len(m.keyInput) > 0 {
			m.keyInput = m.keyInput[:len(m.keyInput)-1]
		}

	case tea.KeyRunes:
		m.keyInput += string(msg.Runes)
	}

	return m, nil
}

// handleMouse seeks when the progress bar row is clicked
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if msg.Y != m.progressRow() {
		return m, nil
	}

	// Bar starts after the play icon and the opening bracket
	col := msg.X - 3
	if col < 0 || col >= barWidth {
		return m, nil
	}
	m.send(Intent{Kind: IntentSeekRatio, Value: float64(col) / float64(barWidth)})
	return m, nil
}

// progressRow is the screen row of the progress bar
func (m Model) progressRow() int {
	// header, blank line, then the Now Playing panel
	return 2 + lipgloss.Height(m.renderNowPlaying())
}

// showNotice sets the notice and schedules its expiry
func (m *Model) showNotice(n notice.Notice) tea.Cmd {
	m.notice = &n
	at := n.At
	return tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
		return clearNoticeMsg{at: at}
	})
}

// send hands an intent to main without blocking the UI
func (m Model) send(intent Intent) {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Intents <- intent:
	default:
	}
}

func renderNotice(n notice.Notice) string {
	switch n.Level {
	case notice.LevelError:
		return errorStyle.Render("✗ " + n.Message)
	case notice.LevelSuccess:
		return successStyle.Render("✓ " + n.Message)
	default:
		return dimStyle.Render("• " + n.Message)
	}
}

// Utility functions
func renderBar(ratio float64, width int) string {
	filled := int(ratio * float64(width))
	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			b.WriteString("█")
		} else {
			b.WriteString("░")
		}
	}
	return b.String()
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
