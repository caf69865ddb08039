package ws2812

import (
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// New opens the transmitter selected by the device option:
//
//	"none"  no-op transmitter (hosts without a pixel)
//	"auto"  board detection via the device tree model
//	path    explicit spidev node
//
// Open failures are returned, never absorbed: a node with a dead status LED
// is undiagnosable in the field, so startup aborts instead of limping on.
func New(device string, logger *slog.Logger) (Transmitter, error) {
	switch device {
	case "none":
		logger.Info("Status LED disabled, using no-op transmitter")
		return newNoop(logger), nil
	case "", "auto":
		model := detectBoard()
		device = defaultDevice(model)
		logger.Info("Detecting board for status LED", "board_model", model, "device", device)
	}

	tx, err := OpenSpidev(device)
	if err != nil {
		return nil, err
	}
	logger.Info("Status LED ready", "device", device)
	return tx, nil
}

// defaultDevice maps known boards to the SPI node their header exposes.
func defaultDevice(model string) string {
	switch {
	case strings.Contains(model, "Raspberry Pi"):
		return "/dev/spidev0.0"
	case strings.Contains(model, "NanoPC-T6"):
		return "/dev/spidev4.0"
	case strings.Contains(model, "Orange Pi"):
		return "/dev/spidev1.1"
	default:
		return "/dev/spidev0.0"
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
