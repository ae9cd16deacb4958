package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedString(e *escapeCapture, s string) (done bool, consumed int) {
	for i, r := range s {
		if e.feed(r) {
			return true, i + 1
		}
	}
	return false, len(s)
}

func TestEscapeCaptureCSI(t *testing.T) {
	var e escapeCapture
	e.start()

	done, consumed := feedString(&e, "[31mZ")

	assert.True(t, done)
	assert.Equal(t, 4, consumed)
	assert.Equal(t, "\x1b[31m", string(e.buf))
}

func TestEscapeCaptureOSCWithBEL(t *testing.T) {
	var e escapeCapture
	e.start()

	done, consumed := feedString(&e, "]0;title\x07rest")

	assert.True(t, done)
	assert.Equal(t, 9, consumed)
	assert.Equal(t, "\x1b]0;title\x07", string(e.buf))
}

func TestEscapeCaptureOSCWithStringTerminator(t *testing.T) {
	var e escapeCapture
	e.start()

	done, _ := feedString(&e, "]0;title\x1b\\after")

	assert.True(t, done)
	assert.Equal(t, "\x1b]0;title\x1b\\", string(e.buf))
}

func TestEscapeCaptureIntermediate(t *testing.T) {
	// ESC ( B selects a character set: one intermediate, one final.
	var e escapeCapture
	e.start()

	done, consumed := feedString(&e, "(Bx")

	assert.True(t, done)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, "\x1b(B", string(e.buf))
}

func TestEscapeCaptureSingleCharacter(t *testing.T) {
	// ESC 7 (save cursor) terminates immediately.
	var e escapeCapture
	e.start()

	assert.True(t, e.feed('7'))
	assert.Equal(t, "\x1b7", string(e.buf))
}

func TestEscapeCapturePendingDrain(t *testing.T) {
	var e escapeCapture
	e.start()
	feedString(&e, "[31")

	assert.Equal(t, "\x1b[31", string(e.pending()))
	assert.False(t, e.active())
	assert.Nil(t, e.pending())
}
