// Package rainbow maps character positions to points on a continuous
// color gradient. Everything here is pure arithmetic; the same inputs
// always produce the same color, which is what makes non-animated
// output reproducible.
package rainbow

import (
	"math"
	"time"
)

// RGB is a 24-bit color triple.
type RGB struct {
	R, G, B uint8
}

// Color returns the gradient color for the character at the given index.
// The three channels are sine waves a third of a cycle apart, so walking
// the index traces the full color wheel. spread controls how many
// characters make up one cycle, freq the overall rate of hue change, and
// phase the starting offset. spread must be non-zero; the configuration
// layer validates that before any color is computed.
func Color(index int, phase, spread, freq float64) RGB {
	angle := freq*float64(index)/spread + phase
	return RGB{
		R: channel(angle),
		G: channel(angle + 2*math.Pi/3),
		B: channel(angle + 4*math.Pi/3),
	}
}

func channel(angle float64) uint8 {
	v := math.Sin(angle)*127 + 128
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v)
}

// Phase converts the configured seed into the initial gradient phase.
// A zero seed picks a time-derived offset so repeated invocations start
// at different points on the wheel; any other seed is reduced mod 256,
// matching the seed semantics of classic rainbow filters.
func Phase(seed uint64) float64 {
	if seed == 0 {
		return float64(time.Now().UnixNano() % 256)
	}
	return float64(seed % 256)
}
