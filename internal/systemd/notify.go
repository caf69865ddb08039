package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// NotifyReady reports readiness to systemd. Outside a Type=notify unit
// this is a no-op.
func NotifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("Failed to notify systemd", "error", err)
		return
	}
	if sent {
		logger.Debug("Reported READY=1 to systemd")
	}
}

// NotifyStopping reports an impending shutdown to systemd.
func NotifyStopping(logger *slog.Logger) {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		logger.Warn("Failed to notify systemd", "error", err)
	}
}

// RunWatchdog pets the systemd watchdog at half the configured interval
// until ctx is canceled. Returns immediately when no watchdog is set up.
func RunWatchdog(ctx context.Context, logger *slog.Logger) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("Failed to query watchdog configuration", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	logger.Debug("Watchdog enabled", "interval", interval.String())
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				logger.Warn("Failed to pet watchdog", "error", err)
			}
		}
	}
}
