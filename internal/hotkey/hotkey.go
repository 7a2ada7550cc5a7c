package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

// Event signals one complete press-then-release of the registered combo.
// It carries no payload; the consumer decides what the trigger means.
type Event struct{}

// Manager manages global hotkey registration and events
type Manager struct {
	hk        *hotkey.Hotkey
	combo     Combo
	eventChan chan Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// New creates a new hotkey manager with the default combo (Ctrl+Shift+W)
func New() *Manager {
	return &Manager{
		combo: Combo{
			Modifiers: []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift},
			Key:       hotkey.KeyW,
		},
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
	}
}

// Register registers the combo with the system and starts listening.
// Registration failure means the OS-level hook could not be installed; the
// caller treats that as fatal at startup and must not retry.
func (m *Manager) Register(combo Combo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("hotkey is already running, call Close() first")
	}

	m.combo = combo

	// Recreate channels (they may have been closed by a previous Close())
	m.stopChan = make(chan struct{})
	m.eventChan = make(chan Event, 10)

	hk := hotkey.New(combo.Modifiers, combo.Key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey %s: %w", combo, err)
	}

	m.hk = hk
	m.running = true

	m.wg.Add(1)
	go m.listen()

	return nil
}

// listen waits for press-then-release sequences and emits one Event per
// sequence. It runs on its own goroutine until Close.
func (m *Manager) listen() {
	defer m.wg.Done()

	for {
		select {
		case <-m.hk.Keydown():
			// The sequence completes on release of the combo
			select {
			case <-m.hk.Keyup():
				select {
				case m.eventChan <- Event{}:
				case <-m.stopChan:
					return
				}
				m.drainKeydown()
			case <-m.stopChan:
				return
			}

		case <-m.stopChan:
			return
		}
	}
}

// drainKeydown discards autorepeat keydown events queued while the combo
// was held, so a long hold does not fire extra triggers after release.
func (m *Manager) drainKeydown() {
	for {
		select {
		case <-m.hk.Keydown():
		default:
			return
		}
	}
}

// Events returns the event channel for receiving hotkey events
func (m *Manager) Events() <-chan Event {
	return m.eventChan
}

// Close unregisters the hotkey and stops listening. It is idempotent and
// safe to call from any thread; no events are delivered after it returns.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	var unregisterErr error

	// Signal the listener to stop
	close(m.stopChan)

	// Wait for the listener goroutine to finish
	m.wg.Wait()

	if m.hk != nil {
		if err := m.hk.Unregister(); err != nil {
			unregisterErr = fmt.Errorf("failed to unregister hotkey: %w", err)
		}
	}

	// Close event channel to notify consumers of shutdown
	if m.eventChan != nil {
		close(m.eventChan)
		m.eventChan = nil
	}

	// Clear running even if Unregister failed so a later Register can retry
	m.running = false

	return unregisterErr
}

// IsRunning returns whether the hotkey is currently registered and running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Combo returns a deep copy of the registered combo
func (m *Manager) Combo() Combo {
	m.mu.Lock()
	defer m.mu.Unlock()

	comboCopy := m.combo
	if m.combo.Modifiers != nil {
		comboCopy.Modifiers = make([]hotkey.Modifier, len(m.combo.Modifiers))
		copy(comboCopy.Modifiers, m.combo.Modifiers)
	}

	return comboCopy
}
