package ws2812

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// spidev ioctl request numbers, from <linux/spi/spidev.h>.
const (
	spiIocWrMode        = 0x40016b01
	spiIocWrBitsPerWord = 0x40016b03
	spiIocWrMaxSpeedHz  = 0x40046b04
)

// Spidev drives the pixel through a Linux SPI device. The pixel's data line
// hangs off MOSI; SCLK and chip select stay unconnected.
type Spidev struct {
	mu     sync.Mutex
	fd     int
	device string
	closed bool
}

// OpenSpidev opens and configures an SPI device for WS2812B framing: mode 0,
// 8 bits per word, clocked so one MOSI bit spans one 100 ns protocol tick.
func OpenSpidev(device string) (*Spidev, error) {
	fd, err := unix.Open(device, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("ws2812: open %s: %w", device, err)
	}

	if err := ioctlU8(fd, spiIocWrMode, 0); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ws2812: set mode on %s: %w", device, err)
	}
	if err := ioctlU8(fd, spiIocWrBitsPerWord, 8); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ws2812: set word size on %s: %w", device, err)
	}
	if err := ioctlU32(fd, spiIocWrMaxSpeedHz, ClockHz); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ws2812: set clock on %s: %w", device, err)
	}

	return &Spidev{fd: fd, device: device}, nil
}

// Transmit writes one encoded frame. A frame is 36 bytes, far below the
// spidev transfer limit, so a single write carries it.
func (s *Spidev) Transmit(c Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("ws2812: %s is closed", s.device)
	}

	frame := Frame(c)
	n, err := unix.Write(s.fd, frame)
	if err != nil {
		return fmt.Errorf("ws2812: write %s: %w", s.device, err)
	}
	if n != len(frame) {
		return fmt.Errorf("ws2812: short write to %s: %d of %d bytes", s.device, n, len(frame))
	}
	return nil
}

// Device returns the spidev node path.
func (s *Spidev) Device() string {
	return s.device
}

// Close releases the SPI device.
func (s *Spidev) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := unix.Close(s.fd); err != nil {
		return fmt.Errorf("ws2812: close %s: %w", s.device, err)
	}
	return nil
}

func ioctlU8(fd int, req uint, val uint8) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(unsafe.Pointer(&val)))
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlU32(fd int, req uint, val uint32) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(unsafe.Pointer(&val)))
	if errno != 0 {
		return errno
	}
	return nil
}
