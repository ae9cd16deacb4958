// Package animate replays an already-rendered region of output with an
// advancing gradient phase, producing the scrolling-rainbow effect. It
// only ever re-renders cells the stream pump recorded; positions are
// reused, never reassigned, so animation cannot disturb character order.
package animate

import (
	"context"
	"time"

	prismerr "github.com/arthur-debert/prism/pkg/errors"
	"github.com/arthur-debert/prism/pkg/logging"
	"github.com/arthur-debert/prism/pkg/stream"
	"github.com/arthur-debert/prism/pkg/terminal"
)

// Options bounds one animation run.
type Options struct {
	// Frames is the total number of frames including the initial render
	// the pump already produced.
	Frames int
	// Interval is the wait between frames (1/speed seconds).
	Interval time.Duration
	// PhaseStep is added to the phase on every frame.
	PhaseStep float64
	// BasePhase is the phase the initial render used.
	BasePhase float64
	// Rows is the height of the rendered region, i.e. how many lines the
	// cursor must rewind per frame.
	Rows int
}

// Run drives the frame loop: wait a tick, rewind the cursor, repaint
// every recorded cell at the next phase, until the frame budget is spent
// or ctx is cancelled. The timed wait is the only suspension point. The
// cursor is hidden for the duration and shown again on every exit path.
func Run(ctx context.Context, guard *stream.PipeGuard, rend stream.Renderer, cells []stream.Cell, opts Options) error {
	if len(cells) == 0 || opts.Frames <= 1 {
		return nil
	}

	logger := logging.GetLogger("animate")
	logger.Debug().
		Int("frames", opts.Frames).
		Int("cells", len(cells)).
		Dur("interval", opts.Interval).
		Msg("Starting animation")

	if err := guard.WriteString(terminal.HideCursor); err != nil {
		return err
	}
	defer func() {
		// Best effort: the terminal must get its cursor back even when
		// the loop is cancelled. A closed pipe makes this a no-op.
		_ = guard.WriteString(terminal.ShowCursor)
		_ = guard.Flush()
	}()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	var frame []byte
	for n := 1; n < opts.Frames; n++ {
		select {
		case <-ctx.Done():
			return prismerr.Wrap(ctx.Err(), prismerr.ErrInterrupted, "animation interrupted")
		case <-ticker.C:
		}

		if guard.Closed() {
			logger.Debug().Int("frame", n).Msg("Sink closed, stopping animation")
			return nil
		}

		phase := opts.BasePhase + float64(n)*opts.PhaseStep
		frame = terminal.AppendCursorUp(frame[:0], opts.Rows)
		for _, cell := range cells {
			frame = rend.AppendCell(frame, cell, phase)
		}
		if err := guard.WriteUnit(frame); err != nil {
			return err
		}
		if err := guard.Flush(); err != nil {
			return err
		}
	}

	logger.Debug().Msg("Animation complete")
	return nil
}
