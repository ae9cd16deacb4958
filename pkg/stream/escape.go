package stream

import "unicode/utf8"

// Escape sequences already present in the input are forwarded untouched
// and uncolored; re-wrapping them would corrupt them. escapeCapture
// accumulates one in-flight sequence until its terminator, covering the
// CSI, OSC/DCS string, Fe and single-character forms.

type escState int

const (
	escNone escState = iota
	escIntro
	escCSI
	escString
	escInterm
)

type escapeCapture struct {
	buf     []byte
	state   escState
	prevESC bool
}

// start begins capturing at an ESC byte.
func (e *escapeCapture) start() {
	e.buf = append(e.buf[:0], 0x1b)
	e.state = escIntro
	e.prevESC = false
}

func (e *escapeCapture) active() bool {
	return e.state != escNone
}

// feed consumes the next rune of the sequence and reports whether the
// sequence is now complete. The accumulated bytes are in buf.
func (e *escapeCapture) feed(r rune) bool {
	e.buf = utf8.AppendRune(e.buf, r)

	switch e.state {
	case escIntro:
		switch {
		case r == '[':
			e.state = escCSI
		case r == ']' || r == 'P' || r == 'X' || r == '^' || r == '_':
			e.state = escString
		case r >= ' ' && r <= '/':
			// Intermediate byte; exactly one final character follows.
			e.state = escInterm
		default:
			e.state = escNone
			return true
		}
	case escCSI:
		if r >= '@' && r <= '~' {
			e.state = escNone
			return true
		}
	case escString:
		// Terminated by BEL or by ESC \ (ST).
		if r == 0x07 || (e.prevESC && r == '\\') {
			e.state = escNone
			return true
		}
		e.prevESC = r == 0x1b
	case escInterm:
		e.state = escNone
		return true
	}
	return false
}

// pending returns any partially captured sequence, used to drain the
// buffer when input ends mid-sequence.
func (e *escapeCapture) pending() []byte {
	if e.state == escNone {
		return nil
	}
	e.state = escNone
	return e.buf
}
