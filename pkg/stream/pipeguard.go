package stream

import (
	"bufio"
	"errors"
	"io"
	"syscall"

	prismerr "github.com/arthur-debert/prism/pkg/errors"
)

// defaultBufferSize bounds how much rendered output is held before a
// write reaches the sink.
const defaultBufferSize = 32 * 1024

// PipeGuard owns the output sink. Every component writes through it, and
// it is the only place that looks at write errors. A broken pipe (the
// reading end went away, e.g. `prism big.txt | head`) turns the guard
// into a sink that silently drops everything, so the run can wind down
// and exit successfully. Any other write failure is fatal and surfaced.
type PipeGuard struct {
	w      *bufio.Writer
	closed bool
	err    error
}

// NewPipeGuard wraps the sink with the default buffer size.
func NewPipeGuard(w io.Writer) *PipeGuard {
	return NewPipeGuardSize(w, defaultBufferSize)
}

// NewPipeGuardSize wraps the sink with an explicit buffer size.
func NewPipeGuardSize(w io.Writer, size int) *PipeGuard {
	return &PipeGuard{w: bufio.NewWriterSize(w, size)}
}

// WriteUnit buffers p as one atomic unit: the buffer is flushed first if
// p would not fit, so an escape sequence and its character payload never
// straddle two writes to the sink.
func (g *PipeGuard) WriteUnit(p []byte) error {
	if g.closed || g.err != nil {
		return g.err
	}
	if g.w.Available() < len(p) {
		if err := g.flush(); err != nil {
			return err
		}
		if g.closed {
			return nil
		}
	}
	_, err := g.w.Write(p)
	return g.note(err)
}

// WriteString is WriteUnit for string payloads.
func (g *PipeGuard) WriteString(s string) error {
	if g.closed || g.err != nil {
		return g.err
	}
	if g.w.Available() < len(s) {
		if err := g.flush(); err != nil {
			return err
		}
		if g.closed {
			return nil
		}
	}
	_, err := g.w.WriteString(s)
	return g.note(err)
}

// Flush pushes buffered output to the sink. Called at least once per
// decoded line to bound latency for interactive consumers.
func (g *PipeGuard) Flush() error {
	if g.closed || g.err != nil {
		return g.err
	}
	return g.flush()
}

func (g *PipeGuard) flush() error {
	return g.note(g.w.Flush())
}

// note classifies a write error: broken pipe marks the guard closed and
// is swallowed, anything else becomes the guard's fatal error.
func (g *PipeGuard) note(err error) error {
	if err == nil {
		return nil
	}
	if isBrokenPipe(err) {
		g.closed = true
		return nil
	}
	g.err = prismerr.Wrap(err, prismerr.ErrWrite, "writing output")
	return g.err
}

// Closed reports whether the reading end of the sink has gone away.
// Callers use it to stop producing promptly; continuing to write is
// harmless but pointless.
func (g *PipeGuard) Closed() bool {
	return g.closed
}

// Err returns the fatal write error, if any.
func (g *PipeGuard) Err() error {
	return g.err
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}
