package renderer

import "math"

// Colormap is a precomputed 256-entry RGB lookup table.
type Colormap [256][3]byte

var (
	jetBlue   = [3]byte{0, 0, 255}
	jetCyan   = [3]byte{0, 255, 255}
	jetGreen  = [3]byte{0, 255, 0}
	jetYellow = [3]byte{255, 255, 0}
	jetRed    = [3]byte{255, 0, 0}
)

// NewJetColormap precomputes a 256-entry jet-like gradient: blue -> cyan ->
// green -> yellow -> red, monotonic in hue, with saturated, injective
// endpoints (colormap[0] is saturated blue, colormap[255] is saturated red).
func NewJetColormap() *Colormap {
	segments := [4]struct {
		from, to [3]byte
	}{
		{jetBlue, jetCyan},
		{jetCyan, jetGreen},
		{jetGreen, jetYellow},
		{jetYellow, jetRed},
	}

	var cm Colormap
	for i := 0; i < 256; i++ {
		seg := i / 64
		local := i % 64
		frac := float64(local) / 64.0
		cm[i] = lerpColor(segments[seg].from, segments[seg].to, frac)
	}
	cm[255] = jetRed // pin the exact saturated endpoint
	return &cm
}

func lerpColor(a, b [3]byte, frac float64) [3]byte {
	return [3]byte{
		lerpByte(a[0], b[0], frac),
		lerpByte(a[1], b[1], frac),
		lerpByte(a[2], b[2], frac),
	}
}

func lerpByte(a, b byte, frac float64) byte {
	v := float64(a) + (float64(b)-float64(a))*frac
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(math.Round(v))
}
