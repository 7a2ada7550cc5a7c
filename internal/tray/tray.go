package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// State represents the current application state
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

// Manager manages the system tray status item and menu
type Manager struct {
	stateMutex      sync.RWMutex
	state           State
	onReadyCallback func()
	onQuit          func()
	menuStatus      *systray.MenuItem
	menuQuit        *systray.MenuItem
}

// Config holds tray manager configuration
type Config struct {
	OnReady func() // Called when systray is ready for initialization
	OnQuit  func()
}

// NewManager creates a new tray manager
func NewManager(config Config) *Manager {
	return &Manager{
		state:           StateIdle,
		onReadyCallback: config.OnReady,
		onQuit:          config.OnQuit,
	}
}

// Run starts the system tray (blocking call). On macOS this call owns the
// process main thread.
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// onReady is called when systray is ready
func (m *Manager) onReady() {
	m.updateTitle()
	systray.SetTooltip("SpeakToMe")

	m.menuStatus = systray.AddMenuItem("Status: idle", "Current recording state")
	m.menuStatus.Disable()

	systray.AddSeparator()

	m.menuQuit = systray.AddMenuItem("Quit", "Quit SpeakToMe")

	go m.handleMenuEvents()

	if m.onReadyCallback != nil {
		m.onReadyCallback()
	}
}

// onExit is called when systray is exiting
func (m *Manager) onExit() {
}

// handleMenuEvents handles menu item clicks
func (m *Manager) handleMenuEvents() {
	for range m.menuQuit.ClickedCh {
		if m.onQuit != nil {
			m.onQuit()
		}
		systray.Quit()
		return
	}
}

// SetState updates the tray status for the current state. Safe to call
// from any goroutine.
func (m *Manager) SetState(state State) {
	m.stateMutex.Lock()
	m.state = state
	m.stateMutex.Unlock()

	m.updateTitle()

	if m.menuStatus != nil {
		m.menuStatus.SetTitle("Status: " + stateLabel(state))
	}
}

// GetState returns the current displayed state
func (m *Manager) GetState() State {
	m.stateMutex.RLock()
	defer m.stateMutex.RUnlock()
	return m.state
}

// updateTitle updates the status item glyph for the current state
func (m *Manager) updateTitle() {
	m.stateMutex.RLock()
	state := m.state
	m.stateMutex.RUnlock()

	switch state {
	case StateRecording:
		systray.SetTitle("🔴")
		systray.SetTooltip("SpeakToMe - recording")
	case StateProcessing:
		systray.SetTitle("⏳")
		systray.SetTooltip("SpeakToMe - transcribing")
	default:
		systray.SetTitle("🎤")
		systray.SetTooltip("SpeakToMe - idle")
	}
}

func stateLabel(state State) string {
	switch state {
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "transcribing"
	default:
		return "idle"
	}
}

// Quit stops the tray loop programmatically
func (m *Manager) Quit() {
	systray.Quit()
}
