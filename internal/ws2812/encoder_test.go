package ws2812

import "testing"

// frameBits expands an encoded frame into one byte per SPI bit, MSB first.
func frameBits(frame []byte) []byte {
	bits := make([]byte, 0, len(frame)*8)
	for _, b := range frame {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1)
		}
	}
	return bits
}

// decodePulse classifies one 12-bit pulse group by its high/low run lengths.
// Returns the decoded color bit, or fails the test if the shape is neither
// the 4-high/8-low zero pulse nor the 8-high/4-low one pulse.
func decodePulse(t *testing.T, group []byte, index int) int {
	t.Helper()

	if len(group) != bitsPerColorBit {
		t.Fatalf("pulse %d: group has %d bits, want %d", index, len(group), bitsPerColorBit)
	}

	high := 0
	for high < len(group) && group[high] == 1 {
		high++
	}
	for i := high; i < len(group); i++ {
		if group[i] != 0 {
			t.Fatalf("pulse %d: high level after the high/low edge at tick %d", index, i)
		}
	}

	switch high {
	case 4: // 400 ns high, 800 ns low
		return 0
	case 8: // 800 ns high, 400 ns low
		return 1
	default:
		t.Fatalf("pulse %d: %d ticks high, want 4 or 8", index, high)
		return 0
	}
}

// decodeFrame turns an encoded frame back into the 24-bit GRB value it
// carries, checking every pulse shape on the way.
func decodeFrame(t *testing.T, frame []byte) uint32 {
	t.Helper()

	bits := frameBits(frame)
	if len(bits) != 24*bitsPerColorBit {
		t.Fatalf("frame carries %d SPI bits, want %d", len(bits), 24*bitsPerColorBit)
	}

	var value uint32
	for i := 0; i < 24; i++ {
		group := bits[i*bitsPerColorBit : (i+1)*bitsPerColorBit]
		value = value<<1 | uint32(decodePulse(t, group, i))
	}
	return value
}

func TestFrameLength(t *testing.T) {
	for _, c := range []Color{Black, Amber, Blue, Green, Red, {R: 255, G: 255, B: 255}} {
		if got := len(Frame(c)); got != FrameBytes {
			t.Errorf("Frame(%+v) = %d bytes, want %d", c, got, FrameBytes)
		}
	}
}

func TestFrameEncodesGRBMSBFirst(t *testing.T) {
	tests := []struct {
		name  string
		color Color
		want  uint32 // G<<16 | R<<8 | B
	}{
		{"black", Black, 0x000000},
		{"white", Color{R: 255, G: 255, B: 255}, 0xFFFFFF},
		{"amber", Amber, 0x142800},
		{"blue", Blue, 0x000028},
		{"green", Green, 0x3C0000},
		{"red", Red, 0x003C00},
		{"mixed", Color{R: 0x12, G: 0x34, B: 0x56}, 0x341256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeFrame(t, Frame(tt.color))
			if got != tt.want {
				t.Errorf("decoded %06X, want %06X", got, tt.want)
			}
		})
	}
}

func TestFrameGreenByteLeads(t *testing.T) {
	// The red component must not appear before the green byte's 8 pulses.
	bits := frameBits(Frame(Color{R: 0x80}))

	first := bits[:bitsPerColorBit]
	if decodePulse(t, first, 0) != 0 {
		t.Error("first pulse encodes 1; green byte should lead and red 0x80 must land in pulse 8")
	}

	ninth := bits[8*bitsPerColorBit : 9*bitsPerColorBit]
	if decodePulse(t, ninth, 8) != 1 {
		t.Error("pulse 8 encodes 0; red MSB should land there")
	}
}

func TestFrameEndsLow(t *testing.T) {
	// Both pulse shapes end low, so the line must rest at 0 after the final
	// byte. The latch gap between frames counts on that.
	for _, c := range []Color{Black, Color{R: 255, G: 255, B: 255}, Red} {
		frame := Frame(c)
		if last := frame[len(frame)-1] & 0x0F; last != 0 {
			t.Errorf("Frame(%+v) final nibble = %04b, line must rest low", c, last)
		}
	}
}
