package terminal

import (
	"strconv"

	"github.com/arthur-debert/prism/pkg/rainbow"
)

// Control sequences shared by the stream and animation layers.
const (
	// Reset clears all SGR attributes. It is emitted exactly once, at
	// stream end, rather than after every character.
	Reset = "\x1b[0m"
	// HideCursor and ShowCursor bracket the animation loop.
	HideCursor = "\x1b[?25l"
	ShowCursor = "\x1b[?25h"
)

// AppendColor appends the SGR sequence selecting c in the given mode.
// background selects the background plane (SGR 48) instead of the
// foreground (SGR 38). In ModeDisabled nothing is appended.
func AppendColor(dst []byte, c rainbow.RGB, mode ColorMode, background bool) []byte {
	if mode == ModeDisabled {
		return dst
	}

	plane := byte('3')
	if background {
		plane = '4'
	}

	dst = append(dst, 0x1b, '[', plane, '8', ';')
	switch mode {
	case ModeTrueColor:
		dst = append(dst, '2', ';')
		dst = strconv.AppendUint(dst, uint64(c.R), 10)
		dst = append(dst, ';')
		dst = strconv.AppendUint(dst, uint64(c.G), 10)
		dst = append(dst, ';')
		dst = strconv.AppendUint(dst, uint64(c.B), 10)
	case Mode256:
		dst = append(dst, '5', ';')
		dst = strconv.AppendUint(dst, uint64(Nearest256(c)), 10)
	}
	return append(dst, 'm')
}

// AppendCursorUp appends the sequence moving the cursor up n lines and
// back to column one, used to rewind over the animated region.
func AppendCursorUp(dst []byte, n int) []byte {
	if n > 0 {
		dst = append(dst, 0x1b, '[')
		dst = strconv.AppendInt(dst, int64(n), 10)
		dst = append(dst, 'A')
	}
	return append(dst, '\r')
}
