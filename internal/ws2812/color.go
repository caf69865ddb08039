package ws2812

// Color is one RGB pixel value. Components are 8-bit intensities; the zero
// value is black (pixel off).
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Status palette. Intensities are deliberately dim: this is a status
// indicator next to a bulkhead, not a lamp.
var (
	Black = Color{}
	Amber = Color{R: 40, G: 20}
	Blue  = Color{B: 40}
	Green = Color{G: 60}
	Red   = Color{R: 60}
)

// grb returns the color bytes in the order the pixel expects them on the wire.
func (c Color) grb() [3]byte {
	return [3]byte{c.G, c.R, c.B}
}
