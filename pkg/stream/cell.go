package stream

import (
	"unicode/utf8"

	"github.com/arthur-debert/prism/pkg/rainbow"
	"github.com/arthur-debert/prism/pkg/terminal"
)

// Position locates a character in the logical input stream. CharIndex is
// monotonic across the whole run, including across concatenated sources;
// Column resets at line boundaries, Line never does.
type Position struct {
	CharIndex int
	Line      int
	Column    int
}

// Cell is one renderable unit: either a single colorized character or a
// run of raw pass-through bytes (line terminators, escape sequences the
// input already contained, invalid UTF-8). Pass-through cells have Raw
// set and are emitted without color wrapping.
type Cell struct {
	Pos  Position
	Rune rune
	Raw  []byte
}

// Passthrough reports whether the cell bypasses the color pipeline.
func (c Cell) Passthrough() bool {
	return c.Raw != nil
}

// Renderer encodes cells for a fixed color mode and gradient shape. The
// phase is a call argument so animation can re-render recorded cells at
// advancing phases without touching their positions.
type Renderer struct {
	Mode   terminal.ColorMode
	Invert bool
	Spread float64
	Freq   float64
}

// AppendCell appends the encoded form of c at the given phase to dst.
// The escape sequence and the character bytes form one unit; callers
// hand the result to PipeGuard.WriteUnit unsplit.
func (r Renderer) AppendCell(dst []byte, c Cell, phase float64) []byte {
	if c.Passthrough() {
		return append(dst, c.Raw...)
	}
	color := rainbow.Color(c.Pos.CharIndex, phase, r.Spread, r.Freq)
	dst = terminal.AppendColor(dst, color, r.Mode, r.Invert)
	return utf8.AppendRune(dst, c.Rune)
}
