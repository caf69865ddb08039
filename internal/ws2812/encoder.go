package ws2812

// WS2812B wire format, at a 100 ns tick:
//
//	bit 0: 400 ns high, 800 ns low (4 ticks high, 8 ticks low)
//	bit 1: 800 ns high, 400 ns low (8 ticks high, 4 ticks low)
//	reset: idle low >50 µs between frames
//
// At a 10 MHz SPI clock one MOSI bit spans exactly one tick, so each color
// bit expands to 12 SPI bits and a 24-bit GRB frame becomes 36 bytes on the
// bus. The reset gap is covered by the spacing between transmissions; frames
// carry no idle padding of their own.

const (
	// ClockHz is the SPI clock that makes one MOSI bit equal one protocol tick.
	ClockHz = 10_000_000

	bitsPerColorBit = 12

	// FrameBytes is the encoded size of one pixel: 24 color bits at 12 SPI
	// bits each.
	FrameBytes = 24 * bitsPerColorBit / 8

	pulseZero = 0b1111_0000_0000 // 4 ticks high, 8 low
	pulseOne  = 0b1111_1111_0000 // 8 ticks high, 4 low
)

// Frame encodes one pixel into the MOSI byte stream: green byte first, each
// byte MSB-first, every bit stretched to its 12-tick pulse.
func Frame(c Color) []byte {
	buf := make([]byte, 0, FrameBytes)

	var acc uint32
	var pending uint
	for _, b := range c.grb() {
		for bit := 7; bit >= 0; bit-- {
			pulse := uint32(pulseZero)
			if b&(1<<uint(bit)) != 0 {
				pulse = pulseOne
			}
			acc = acc<<bitsPerColorBit | pulse
			pending += bitsPerColorBit
			for pending >= 8 {
				pending -= 8
				buf = append(buf, byte(acc>>pending))
			}
		}
	}

	return buf
}
