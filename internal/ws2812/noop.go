package ws2812

import "log/slog"

// noop implements Transmitter for hosts without a wired pixel.
type noop struct {
	logger *slog.Logger
}

// newNoop creates a transmitter that logs instead of transmitting.
func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger}
}

// Transmit logs the requested color and drops the frame.
func (n *noop) Transmit(c Color) error {
	n.logger.Debug("LED transmit skipped (no-op)", "r", c.R, "g", c.G, "b", c.B)
	return nil
}

// Device identifies the transmitter as disabled.
func (n *noop) Device() string {
	return "none"
}

// Close has nothing to release.
func (n *noop) Close() error {
	return nil
}
