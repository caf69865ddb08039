package statusled

import (
	"log/slog"
	"sync"
	"time"

	"github.com/openmux/statusd/internal/events"
)

// Manager subscribes to network lifecycle events and drives the engine
// accordingly. It also arbitrates between the lifecycle state and the
// button-hold feedback overlay: while the overlay is active, lifecycle
// changes are remembered but not shown, and a restore puts the most
// recent one back on the pixel.
type Manager struct {
	engine      *Engine
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger

	mu         sync.Mutex
	lifecycle  State
	inFeedback bool
}

// NewManager creates a manager that owns the engine's lifetime.
func NewManager(engine *Engine, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		engine:    engine,
		eventBus:  eventBus,
		logger:    logger,
		lifecycle: StateOff,
	}
}

// Start hooks the engine's transition notifications and begins listening
// for network lifecycle events.
func (m *Manager) Start() {
	m.engine.OnStateChange(m.publishChange)
	m.unsubscribe = m.eventBus.Subscribe(func(e events.NetworkEvent) {
		m.handleNetworkEvent(e)
	})
	m.logger.Info("LED manager started")
}

// Stop unsubscribes from events and shuts the engine down.
func (m *Manager) Stop() error {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	err := m.engine.Close()
	m.logger.Info("LED manager stopped")
	return err
}

// Set applies a display state directly, bypassing the lifecycle mapping.
// Used by the API for manual control.
func (m *Manager) Set(s State) {
	m.engine.SetState(s)
}

// State returns the state currently shown.
func (m *Manager) State() State {
	return m.engine.State()
}

// Device names the transmitter device behind the engine.
func (m *Manager) Device() string {
	return m.engine.Device()
}

// FeedbackShow puts a button-hold feedback state on the pixel. The first
// call opens the overlay; lifecycle changes arriving while it is open are
// deferred until FeedbackRestore.
func (m *Manager) FeedbackShow(s State) {
	m.mu.Lock()
	m.inFeedback = true
	m.mu.Unlock()

	m.engine.SetState(s)
}

// FeedbackRestore closes the overlay and puts the last lifecycle state
// back on the pixel.
func (m *Manager) FeedbackRestore() {
	m.mu.Lock()
	m.inFeedback = false
	target := m.lifecycle
	m.mu.Unlock()

	m.engine.SetState(target)
}

// handleNetworkEvent maps one lifecycle action onto a display state.
func (m *Manager) handleNetworkEvent(event events.NetworkEvent) {
	s, ok := stateForNetworkAction(event.Action)
	if !ok {
		m.logger.Warn("Unknown network action", "action", event.Action)
		return
	}

	m.mu.Lock()
	m.lifecycle = s
	deferred := m.inFeedback
	m.mu.Unlock()

	m.logger.Debug("Network lifecycle change",
		"action", event.Action,
		"state", s.String(),
		"deferred", deferred)

	if deferred {
		// The button overlay owns the pixel right now; the state is
		// remembered for the restore.
		return
	}
	m.engine.SetState(s)
}

// publishChange records applied transitions and republishes them on the
// bus for the API event stream. Runs outside the engine lock.
func (m *Manager) publishChange(previous, current State) {
	m.mu.Lock()
	if !m.inFeedback {
		m.lifecycle = current
	}
	m.mu.Unlock()

	m.eventBus.Publish(events.LEDStateChangedEvent{
		State:     current.String(),
		Previous:  previous.String(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func stateForNetworkAction(action string) (State, bool) {
	switch action {
	case events.NetworkJoined:
		return StateJoined, true
	case events.NetworkLeft:
		return StateNotJoined, true
	case events.NetworkPairingStarted:
		return StatePairing, true
	case events.NetworkPairingTimeout:
		return StateNotJoined, true
	case events.NetworkError:
		return StateError, true
	default:
		return StateOff, false
	}
}
