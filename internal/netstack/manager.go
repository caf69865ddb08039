// Package netstack supervises the mesh networking daemon and tracks the
// node's membership lifecycle.
package netstack

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/openmux/statusd/internal/events"
	"github.com/openmux/statusd/internal/settings"
)

const (
	defaultUnit          = "meshd.service"
	defaultPairingWindow = 180 * time.Second

	settingsBucket = "network"
	keyJoined      = "joined"
)

// never parks a timer that has not been armed yet.
const never = time.Duration(math.MaxInt64)

// UnitManager is the slice of systemd needed to supervise the mesh
// daemon.
type UnitManager interface {
	StartUnit(ctx context.Context, unit string) error
	StopUnit(ctx context.Context, unit string) error
	RestartUnit(ctx context.Context, unit string) error
	UnitState(ctx context.Context, unit string) (string, error)
}

// Config selects the supervised unit and the pairing window length.
// Zero values fall back to the defaults.
type Config struct {
	Unit          string
	PairingWindow time.Duration
}

// Status describes the mesh membership as the daemon sees it.
type Status struct {
	Joined      bool   `json:"joined" doc:"Whether the node is part of a mesh network"`
	Pairing     bool   `json:"pairing" doc:"Whether a pairing window is open"`
	PairingEnds string `json:"pairing_ends,omitempty" example:"2025-01-27T10:33:00Z" doc:"When the open pairing window closes"`
	UnitState   string `json:"unit_state" example:"active" doc:"ActiveState of the mesh daemon unit"`
	Unit        string `json:"unit" example:"meshd.service" doc:"Name of the supervised unit"`
	LastError   string `json:"last_error,omitempty" doc:"Most recent soft failure"`
}

// Manager owns the join lifecycle: it opens and closes pairing windows,
// records membership in the settings store, and reports every change on
// the event bus. Unit failures are soft; they surface as error events
// rather than aborting the daemon.
type Manager struct {
	units    UnitManager
	unit     string
	window   time.Duration
	store    *settings.Store
	eventBus *events.Bus
	logger   *slog.Logger

	mu           sync.Mutex
	joined       bool
	pairing      bool
	pairingEnds  time.Time
	lastError    string
	pairingTimer *time.Timer
	closed       bool
}

// NewManager creates a manager. Call Start to recover persisted
// membership and announce the initial lifecycle state.
func NewManager(cfg Config, units UnitManager, store *settings.Store, eventBus *events.Bus, logger *slog.Logger) *Manager {
	m := &Manager{
		units:    units,
		unit:     cfg.Unit,
		window:   cfg.PairingWindow,
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
	if m.unit == "" {
		m.unit = defaultUnit
	}
	if m.window <= 0 {
		m.window = defaultPairingWindow
	}
	m.pairingTimer = time.AfterFunc(never, m.onPairingTimeout)
	m.pairingTimer.Stop()
	return m
}

// Start recovers the persisted membership, makes sure the mesh daemon is
// running when the node is joined, and announces the initial state.
func (m *Manager) Start(ctx context.Context) error {
	joined, err := settings.GetOr(m.store.Bucket(settingsBucket), keyJoined, false)
	if err != nil {
		return fmt.Errorf("failed to read persisted membership: %w", err)
	}

	m.mu.Lock()
	m.joined = joined
	m.mu.Unlock()

	if joined {
		if err := m.units.StartUnit(ctx, m.unit); err != nil {
			m.reportError(fmt.Errorf("failed to start %s: %w", m.unit, err))
		}
		m.publish(events.NetworkJoined, "")
	} else {
		m.publish(events.NetworkLeft, "")
	}

	m.logger.Info("Network manager started", "unit", m.unit, "joined", joined)
	return nil
}

// StartPairing opens a pairing window. The mesh daemon is started first
// so the radio is actually listening while the window is open.
func (m *Manager) StartPairing(ctx context.Context) error {
	if err := m.units.StartUnit(ctx, m.unit); err != nil {
		werr := fmt.Errorf("failed to start %s: %w", m.unit, err)
		m.reportError(werr)
		return werr
	}

	m.mu.Lock()
	m.pairing = true
	m.pairingEnds = time.Now().Add(m.window)
	m.pairingTimer.Reset(m.window)
	m.mu.Unlock()

	m.publish(events.NetworkPairingStarted, "")
	m.logger.Info("Pairing window opened", "window_s", int(m.window.Seconds()))
	return nil
}

// StopPairing closes an open pairing window without joining.
func (m *Manager) StopPairing() {
	m.mu.Lock()
	wasPairing := m.pairing
	m.pairing = false
	m.pairingTimer.Stop()
	m.mu.Unlock()

	if wasPairing {
		m.publish(events.NetworkPairingTimeout, "")
		m.logger.Info("Pairing window closed")
	}
}

// TogglePairing opens a pairing window, or closes the one currently
// open. Wired to the button's short press.
func (m *Manager) TogglePairing(ctx context.Context) error {
	m.mu.Lock()
	pairing := m.pairing
	m.mu.Unlock()

	if pairing {
		m.StopPairing()
		return nil
	}
	return m.StartPairing(ctx)
}

// ReportJoined records a confirmed join. Invoked by the mesh daemon via
// the API once the node is part of a network.
func (m *Manager) ReportJoined() error {
	if err := m.store.Bucket(settingsBucket).Put(keyJoined, true); err != nil {
		return fmt.Errorf("failed to persist membership: %w", err)
	}

	m.mu.Lock()
	m.joined = true
	m.pairing = false
	m.lastError = ""
	m.pairingTimer.Stop()
	m.mu.Unlock()

	m.publish(events.NetworkJoined, "")
	m.logger.Info("Joined mesh network")
	return nil
}

// ReportError records a soft failure reported by the mesh daemon.
func (m *Manager) ReportError(detail string) {
	m.mu.Lock()
	m.lastError = detail
	m.mu.Unlock()

	m.publish(events.NetworkError, detail)
	m.logger.Warn("Mesh network error reported", "detail", detail)
}

// Leave drops out of the current network. The mesh daemon is restarted
// so it comes back up with clean network state.
func (m *Manager) Leave(ctx context.Context) error {
	m.mu.Lock()
	m.joined = false
	m.pairing = false
	m.pairingTimer.Stop()
	m.mu.Unlock()

	if err := m.store.Bucket(settingsBucket).Put(keyJoined, false); err != nil {
		return fmt.Errorf("failed to persist membership: %w", err)
	}

	if err := m.units.RestartUnit(ctx, m.unit); err != nil {
		m.reportError(fmt.Errorf("failed to restart %s: %w", m.unit, err))
	}

	m.publish(events.NetworkLeft, "")
	m.logger.Info("Left mesh network")
	return nil
}

// FactoryReset leaves the network and wipes all persisted network
// settings. Wired to the button's ten second hold.
func (m *Manager) FactoryReset(ctx context.Context) error {
	m.mu.Lock()
	m.joined = false
	m.pairing = false
	m.pairingTimer.Stop()
	m.mu.Unlock()

	if err := m.store.Bucket(settingsBucket).Clear(); err != nil {
		return fmt.Errorf("failed to wipe network settings: %w", err)
	}

	if err := m.units.RestartUnit(ctx, m.unit); err != nil {
		m.reportError(fmt.Errorf("failed to restart %s: %w", m.unit, err))
	}

	m.publish(events.NetworkLeft, "")
	m.logger.Info("Factory reset completed")
	return nil
}

// Status returns a snapshot of the membership and the unit's state.
func (m *Manager) Status(ctx context.Context) Status {
	m.mu.Lock()
	st := Status{
		Joined:    m.joined,
		Pairing:   m.pairing,
		Unit:      m.unit,
		LastError: m.lastError,
	}
	if m.pairing {
		st.PairingEnds = m.pairingEnds.Format(time.RFC3339)
	}
	m.mu.Unlock()

	state, err := m.units.UnitState(ctx, m.unit)
	if err != nil {
		m.logger.Warn("Failed to read unit state", "unit", m.unit, "error", err)
		state = "unknown"
	}
	st.UnitState = state
	return st
}

// Close stops the pairing timer. No events are published after Close.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.pairingTimer.Stop()
	m.mu.Unlock()
}

// onPairingTimeout fires when a pairing window expires unused.
func (m *Manager) onPairingTimeout() {
	m.mu.Lock()
	if m.closed || !m.pairing {
		m.mu.Unlock()
		return
	}
	m.pairing = false
	m.mu.Unlock()

	m.publish(events.NetworkPairingTimeout, "")
	m.logger.Info("Pairing window expired")
}

func (m *Manager) reportError(err error) {
	m.mu.Lock()
	m.lastError = err.Error()
	m.mu.Unlock()

	m.publish(events.NetworkError, err.Error())
	m.logger.Error("Mesh unit operation failed", "unit", m.unit, "error", err)
}

func (m *Manager) publish(action, detail string) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}

	m.eventBus.Publish(events.NetworkEvent{
		Action:    action,
		Error:     detail,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
