package updater

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openmux/statusd/internal/events"
	"github.com/openmux/statusd/internal/logging"
)

func TestErrorFormatting(t *testing.T) {
	plain := newError(ErrCodeNoUpdate, "no update available", nil)
	if got := plain.Error(); got != "NO_UPDATE: no update available" {
		t.Errorf("unexpected error string: %q", got)
	}

	cause := errors.New("connection refused")
	wrapped := newError(ErrCodeCheckFailed, "failed to check for updates", cause)
	if got := wrapped.Error(); got != "CHECK_FAILED: failed to check for updates: connection refused" {
		t.Errorf("unexpected wrapped error string: %q", got)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("expected wrapped error to unwrap to its cause")
	}
	if !IsCode(wrapped, ErrCodeCheckFailed) || IsCode(wrapped, ErrCodeNoUpdate) {
		t.Error("IsCode should match only the carried code")
	}
}

func TestDisabledServiceRejectsOperations(t *testing.T) {
	svc := &service{
		enabled:        false,
		disabledReason: "no write permission to /usr/bin",
		state:          StateIdle,
		logger:         logging.GetLogger("updater"),
	}

	ctx := context.Background()

	if _, err := svc.CheckForUpdate(ctx); !IsCode(err, ErrCodeDisabled) {
		t.Errorf("expected DISABLED from check, got %v", err)
	}
	if err := svc.ApplyUpdate(ctx); !IsCode(err, ErrCodeDisabled) {
		t.Errorf("expected DISABLED from apply, got %v", err)
	}
	if err := svc.ApplyDevBuild(ctx); !IsCode(err, ErrCodeDisabled) {
		t.Errorf("expected DISABLED from dev build, got %v", err)
	}
	if err := svc.Rollback(ctx); !IsCode(err, ErrCodeDisabled) {
		t.Errorf("expected DISABLED from rollback, got %v", err)
	}
	if svc.IsEnabled() {
		t.Error("expected service to report disabled")
	}
	if svc.DisabledReason() == "" {
		t.Error("expected a disabled reason")
	}
}

func TestRollbackWithoutBackup(t *testing.T) {
	svc := &service{
		enabled: true,
		state:   StateIdle,
		logger:  logging.GetLogger("updater"),
	}

	if err := svc.Rollback(context.Background()); !IsCode(err, ErrCodeNoBackup) {
		t.Errorf("expected NO_BACKUP, got %v", err)
	}
}

func TestTransitionGuards(t *testing.T) {
	svc := &service{state: StateIdle, logger: logging.GetLogger("updater")}

	if !svc.transitionTo(StateChecking, StateIdle, StateAvailable, StateError) {
		t.Error("expected idle to allow checking")
	}
	if svc.transitionTo(StateDownloading, StateAvailable) {
		t.Error("expected checking to forbid downloading")
	}
	if svc.getState() != StateChecking {
		t.Errorf("expected state to stay checking, got %s", svc.getState())
	}

	// Unconditional transition always succeeds.
	if !svc.transitionTo(StateIdle) {
		t.Error("expected unconditional transition to succeed")
	}
}

func TestStatusReportsLastError(t *testing.T) {
	svc := &service{
		enabled: true,
		state:   StateIdle,
		logger:  logging.GetLogger("updater"),
	}
	svc.setError(errors.New("download interrupted"))

	status := svc.GetStatus(context.Background())
	if status.State != StateError {
		t.Errorf("expected error state, got %s", status.State)
	}
	if status.Error != "download interrupted" {
		t.Errorf("expected error detail, got %q", status.Error)
	}
	if status.CurrentVersion == "" {
		t.Error("expected current version to be populated")
	}
}

func TestAnnouncePublishesUpdateEvents(t *testing.T) {
	bus := events.New()
	received := make(chan events.UpdateEvent, 4)
	unsubscribe := bus.Subscribe(func(e events.UpdateEvent) {
		received <- e
	})
	defer unsubscribe()

	svc := &service{
		enabled:  true,
		state:    StateIdle,
		eventBus: bus,
		logger:   logging.GetLogger("updater"),
	}
	svc.announce(string(StateAvailable), "1.4.0", "")

	select {
	case e := <-received:
		if e.Status != "available" || e.Version != "1.4.0" {
			t.Errorf("unexpected event: %+v", e)
		}
		if e.Timestamp == "" {
			t.Error("expected timestamp on event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update event received")
	}
}
