// Package stream pumps bytes from input sources to the output sink,
// decoding UTF-8 incrementally and wrapping each character in the
// gradient color for its position. It owns the two streaming invariants:
// characters are never split across chunked reads, and everything that
// is not a decodable text character passes through byte-for-byte.
package stream

import (
	"context"
	"io"
	"unicode/utf8"

	prismerr "github.com/arthur-debert/prism/pkg/errors"
	"github.com/arthur-debert/prism/pkg/terminal"
)

const (
	// chunkSize is the read granularity. Small enough to keep first-byte
	// latency low on slow producers, large enough to amortize syscalls.
	chunkSize = 8192
	// tabWidth is how many colorized spaces a tab expands to.
	tabWidth = 8
)

var newlineByte = []byte{'\n'}

// Options configures a Pump for one run.
type Options struct {
	Mode   terminal.ColorMode
	Invert bool
	Spread float64
	Freq   float64
	// Phase is the initial gradient offset, derived from the seed.
	Phase float64
	// Record keeps every emitted cell for animation replay. Only set for
	// bounded inputs.
	Record bool
}

// Pump drives the decode-color-write loop. It is single-threaded by
// design: output order must exactly mirror input character order, and
// the per-character work is cheap arithmetic.
type Pump struct {
	guard *PipeGuard
	rend  Renderer
	opts  Options

	pos   Position
	carry []byte
	merge []byte
	esc   escapeCapture
	cells []Cell

	scratch []byte
	chunk   []byte
}

// NewPump creates a pump writing through guard.
func NewPump(guard *PipeGuard, opts Options) *Pump {
	return &Pump{
		guard: guard,
		opts:  opts,
		rend: Renderer{
			Mode:   opts.Mode,
			Invert: opts.Invert,
			Spread: opts.Spread,
			Freq:   opts.Freq,
		},
		chunk: make([]byte, chunkSize),
	}
}

// readResult is the outcome of one chunk read performed off the pump
// loop.
type readResult struct {
	n   int
	err error
}

// Run consumes one source to exhaustion. Call it once per source, in
// order; position tracking carries across calls. An incomplete multibyte
// sequence at the end of a source is drained as pass-through bytes
// rather than glued onto the next source.
//
// Reads happen on a helper goroutine so cancellation unblocks the loop
// even while the source has nothing to give, which is the normal state
// of an interactive stdin. A read abandoned by cancellation completes
// into the buffer it was handed and the helper exits; the buffer is not
// reused afterwards because a cancelled Run ends the pipeline.
func (p *Pump) Run(ctx context.Context, src io.Reader) error {
	ready := make(chan []byte)
	reads := make(chan readResult, 1)
	defer close(ready)

	go func() {
		for buf := range ready {
			n, err := src.Read(buf)
			reads <- readResult{n: n, err: err}
			if err != nil {
				return
			}
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return prismerr.Wrap(err, prismerr.ErrInterrupted, "stream interrupted")
		}
		if p.guard.Closed() {
			return nil
		}

		select {
		case <-ctx.Done():
			return prismerr.Wrap(ctx.Err(), prismerr.ErrInterrupted, "stream interrupted")
		case ready <- p.chunk:
		}

		var res readResult
		select {
		case <-ctx.Done():
			return prismerr.Wrap(ctx.Err(), prismerr.ErrInterrupted, "stream interrupted")
		case res = <-reads:
		}

		if res.n > 0 {
			if perr := p.process(p.chunk[:res.n]); perr != nil {
				return perr
			}
		}
		if res.err == io.EOF {
			return p.endSource()
		}
		if res.err != nil {
			return prismerr.Wrap(res.err, prismerr.ErrSourceOpen, "reading source")
		}
	}
}

// process decodes a chunk, prefixed by any carry-over bytes from the
// previous chunk, and emits every decoded character.
func (p *Pump) process(data []byte) error {
	if p.rend.Mode == terminal.ModeDisabled {
		// Identity transform: bytes out equal bytes in, no decoding, no
		// tab expansion.
		if err := p.guard.WriteUnit(data); err != nil {
			return err
		}
		return p.guard.Flush()
	}

	if len(p.carry) > 0 {
		p.merge = append(p.merge[:0], p.carry...)
		p.merge = append(p.merge, data...)
		data = p.merge
		p.carry = p.carry[:0]
	}

	for len(data) > 0 {
		r, size := decodeRune(data)
		if size == 0 {
			// Incomplete multibyte tail; hold it for the next chunk.
			p.carry = append(p.carry[:0], data...)
			return nil
		}
		if size < 0 {
			// Invalid UTF-8: the byte passes through unmodified and
			// uncolored, and the stream continues. Any escape sequence
			// still being captured drains first so pass-through bytes
			// keep input order.
			if pending := p.esc.pending(); len(pending) > 0 {
				if err := p.emitRaw(pending); err != nil {
					return err
				}
			}
			if err := p.emitRaw(data[:1]); err != nil {
				return err
			}
			data = data[1:]
			continue
		}
		data = data[size:]
		if err := p.feed(r); err != nil {
			return err
		}
	}
	return nil
}

// feed routes one decoded rune to the right emitter.
func (p *Pump) feed(r rune) error {
	if p.esc.active() {
		if p.esc.feed(r) {
			return p.emitRaw(p.esc.buf)
		}
		return nil
	}

	switch r {
	case 0x1b:
		p.esc.start()
		return nil
	case '\n':
		return p.emitNewline()
	case '\t':
		for i := 0; i < tabWidth; i++ {
			if err := p.emitChar(' '); err != nil {
				return err
			}
		}
		return nil
	default:
		return p.emitChar(r)
	}
}

func (p *Pump) emitChar(r rune) error {
	cell := Cell{Pos: p.pos, Rune: r}
	p.pos.CharIndex++
	p.pos.Column++
	return p.emit(cell)
}

// emitNewline forwards the terminator unwrapped and flushes so each
// completed line reaches the consumer promptly.
func (p *Pump) emitNewline() error {
	cell := Cell{Pos: p.pos, Raw: newlineByte}
	p.pos.Line++
	p.pos.Column = 0
	if err := p.emit(cell); err != nil {
		return err
	}
	return p.guard.Flush()
}

func (p *Pump) emitRaw(b []byte) error {
	return p.emit(Cell{Pos: p.pos, Raw: b})
}

func (p *Pump) emit(c Cell) error {
	if p.opts.Record {
		rec := c
		if c.Raw != nil {
			// Raw slices alias reused buffers; recorded cells need their
			// own copy.
			rec.Raw = append([]byte(nil), c.Raw...)
		}
		p.cells = append(p.cells, rec)
	}
	p.scratch = p.rend.AppendCell(p.scratch[:0], c, p.opts.Phase)
	return p.guard.WriteUnit(p.scratch)
}

// endSource drains decoder state that must not leak into the next
// source.
func (p *Pump) endSource() error {
	if len(p.carry) > 0 {
		if err := p.emitRaw(p.carry); err != nil {
			return err
		}
		p.carry = p.carry[:0]
	}
	return p.guard.Flush()
}

// Finalize emits the single trailing reset and flushes. Call exactly
// once, after all sources (and any animation) are done.
func (p *Pump) Finalize() error {
	if pending := p.esc.pending(); len(pending) > 0 {
		if err := p.guard.WriteUnit(pending); err != nil {
			return err
		}
	}
	if p.rend.Mode != terminal.ModeDisabled {
		if err := p.guard.WriteString(terminal.Reset); err != nil {
			return err
		}
	}
	return p.guard.Flush()
}

// Cells returns the recorded cells. Empty unless Options.Record was set.
func (p *Pump) Cells() []Cell {
	return p.cells
}

// Renderer returns the renderer the pump encodes with, shared with the
// animation loop so both layers produce identical bytes for a cell.
func (p *Pump) Renderer() Renderer {
	return p.rend
}

// Position returns the position immediately after the last emitted
// character.
func (p *Pump) Position() Position {
	return p.pos
}

// decodeRune wraps utf8 decoding with the chunk-boundary policy folded
// in: size 0 means an incomplete tail worth carrying over, size -1 means
// an invalid byte to pass through.
func decodeRune(data []byte) (rune, int) {
	r, size := utf8.DecodeRune(data)
	if r == utf8.RuneError && size <= 1 {
		if !utf8.FullRune(data) {
			return 0, 0
		}
		return 0, -1
	}
	return r, size
}
