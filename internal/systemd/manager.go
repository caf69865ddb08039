// Package systemd talks to the local systemd instance: unit lifecycle
// for the mesh daemon and readiness notifications for statusd itself.
package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Manager handles unit lifecycle operations over the system bus.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the system bus. statusd runs as a system
// service, so user session buses are not considered.
func NewManager(ctx context.Context) (*Manager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &Manager{conn: conn}, nil
}

// UnitState retrieves the ActiveState property of a unit.
func (m *Manager) UnitState(ctx context.Context, unit string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", fmt.Errorf("failed to read state of %s: %w", unit, err)
	}

	state, ok := prop.Value.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected ActiveState type for %s", unit)
	}
	return state, nil
}

// StartUnit starts a unit and waits for the job to finish.
func (m *Manager) StartUnit(ctx context.Context, unit string) error {
	return m.runJob(ctx, unit, "start", m.conn.StartUnitContext)
}

// StopUnit stops a unit and waits for the job to finish.
func (m *Manager) StopUnit(ctx context.Context, unit string) error {
	return m.runJob(ctx, unit, "stop", m.conn.StopUnitContext)
}

// RestartUnit restarts a unit and waits for the job to finish.
func (m *Manager) RestartUnit(ctx context.Context, unit string) error {
	return m.runJob(ctx, unit, "restart", m.conn.RestartUnitContext)
}

type jobFunc func(ctx context.Context, name string, mode string, ch chan<- string) (int, error)

// runJob enqueues a unit job in replace mode and waits for its result.
// Anything but "done" counts as a failure.
func (m *Manager) runJob(ctx context.Context, unit, verb string, enqueue jobFunc) error {
	ch := make(chan string, 1)
	if _, err := enqueue(ctx, unit, "replace", ch); err != nil {
		return fmt.Errorf("failed to %s %s: %w", verb, unit, err)
	}

	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("%s job for %s finished with %q", verb, unit, result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// Unavailable stands in for Manager when the system bus cannot be
// reached. State reads report "unknown"; control verbs fail with the
// original connection error so callers see why nothing happens.
type Unavailable struct {
	Err error
}

// UnitState always reports "unknown".
func (u Unavailable) UnitState(ctx context.Context, unit string) (string, error) {
	return "unknown", nil
}

// StartUnit fails with the stored connection error.
func (u Unavailable) StartUnit(ctx context.Context, unit string) error {
	return fmt.Errorf("system bus unavailable: %w", u.Err)
}

// StopUnit fails with the stored connection error.
func (u Unavailable) StopUnit(ctx context.Context, unit string) error {
	return fmt.Errorf("system bus unavailable: %w", u.Err)
}

// RestartUnit fails with the stored connection error.
func (u Unavailable) RestartUnit(ctx context.Context, unit string) error {
	return fmt.Errorf("system bus unavailable: %w", u.Err)
}
