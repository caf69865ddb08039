package ws2812

// Transmitter pushes single-pixel frames out one physical data line.
// Exactly one transmitter owns a line; the engine above never shares it.
type Transmitter interface {
	// Transmit fires one color frame at the pixel and returns once the
	// frame is handed to the peripheral, which clocks the waveform out on
	// its own. A failed transmit is safe to drop: the next blink tick
	// resends the current color anyway.
	Transmit(c Color) error

	// Device identifies the underlying output for logs and status reporting.
	Device() string

	// Close releases the output line.
	Close() error
}
