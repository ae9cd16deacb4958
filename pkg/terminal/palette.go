package terminal

import "github.com/arthur-debert/prism/pkg/rainbow"

// palette holds the RGB values of the 256-entry xterm palette: the 16
// system colors (xterm defaults), the 6x6x6 color cube, and the 24-step
// grayscale ramp.
var palette [256]rainbow.RGB

// cubeLevels are the channel values used by the 6x6x6 cube.
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

func init() {
	system := [16]rainbow.RGB{
		{R: 0, G: 0, B: 0},
		{R: 205, G: 0, B: 0},
		{R: 0, G: 205, B: 0},
		{R: 205, G: 205, B: 0},
		{R: 0, G: 0, B: 238},
		{R: 205, G: 0, B: 205},
		{R: 0, G: 205, B: 205},
		{R: 229, G: 229, B: 229},
		{R: 127, G: 127, B: 127},
		{R: 255, G: 0, B: 0},
		{R: 0, G: 255, B: 0},
		{R: 255, G: 255, B: 0},
		{R: 92, G: 92, B: 255},
		{R: 255, G: 0, B: 255},
		{R: 0, G: 255, B: 255},
		{R: 255, G: 255, B: 255},
	}
	copy(palette[:16], system[:])

	i := 16
	for _, r := range cubeLevels {
		for _, g := range cubeLevels {
			for _, b := range cubeLevels {
				palette[i] = rainbow.RGB{R: r, G: g, B: b}
				i++
			}
		}
	}

	for k := 0; k < 24; k++ {
		v := uint8(8 + 10*k)
		palette[232+k] = rainbow.RGB{R: v, G: v, B: v}
	}
}

// Nearest256 maps an RGB triple to the closest palette entry by Euclidean
// distance in RGB space. Ties resolve to the lowest palette index.
func Nearest256(c rainbow.RGB) uint8 {
	best := 0
	bestDist := distanceSq(c, palette[0])
	for i := 1; i < len(palette); i++ {
		if d := distanceSq(c, palette[i]); d < bestDist {
			best = i
			bestDist = d
			if d == 0 {
				break
			}
		}
	}
	return uint8(best)
}

func distanceSq(a, b rainbow.RGB) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}
