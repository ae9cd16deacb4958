package prism

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/prism/pkg/animate"
	"github.com/arthur-debert/prism/pkg/config"
	prismerr "github.com/arthur-debert/prism/pkg/errors"
	"github.com/arthur-debert/prism/pkg/logging"
	"github.com/arthur-debert/prism/pkg/rainbow"
	"github.com/arthur-debert/prism/pkg/stream"
	"github.com/arthur-debert/prism/pkg/terminal"
)

// run wires the real process environment into the pipeline. SIGINT and
// SIGTERM cancel the context so a long animation unwinds cleanly.
func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode := terminal.Detect(os.Stdout, terminal.DetectOptions{
		NoColor:   cfg.NoColor,
		Force:     cfg.Force,
		TrueColor: cfg.TrueColor,
	})

	var sink io.Writer = os.Stdout
	if mode != terminal.ModeDisabled {
		sink = colorable.NewColorable(os.Stdout)
	}

	return runPipeline(ctx, cfg, mode, sink, os.Stdin, os.Stderr)
}

// runPipeline reads every configured source through one Pump so the
// gradient continues across file boundaries, then optionally replays
// the recorded cells as an animation.
func runPipeline(ctx context.Context, cfg config.Config, mode terminal.ColorMode, sink io.Writer, stdin io.Reader, stderr io.Writer) error {
	logger := logging.GetLogger("run")
	logger.Debug().
		Stringer("mode", mode).
		Float64("spread", cfg.Spread).
		Float64("freq", cfg.Freq).
		Bool("animate", cfg.Animate).
		Msg("starting pipeline")

	animated := cfg.Animate && mode != terminal.ModeDisabled
	phase := rainbow.Phase(cfg.Seed)

	guard := stream.NewPipeGuard(sink)
	pump := stream.NewPump(guard, stream.Options{
		Mode:   mode,
		Invert: cfg.Invert,
		Spread: cfg.Spread,
		Freq:   cfg.Freq,
		Phase:  phase,
		Record: animated,
	})

	sources := cfg.Files
	if len(sources) == 0 {
		sources = []string{"-"}
	}

	var openFailures int
	for _, path := range sources {
		if guard.Closed() {
			break
		}

		var src io.Reader
		var cl io.Closer
		if path == "-" {
			src = stdin
		} else {
			f, err := os.Open(path)
			if err != nil {
				fmt.Fprintln(stderr, describeOpenError(path, err))
				logger.Warn().Str("path", path).Err(err).Msg("skipping source")
				openFailures++
				continue
			}
			src = f
			cl = f
		}

		err := pump.Run(ctx, src)
		if cl != nil {
			_ = cl.Close()
		}
		if err != nil {
			_ = pump.Finalize()
			return err
		}
	}

	if animated && !guard.Closed() {
		err := animate.Run(ctx, guard, pump.Renderer(), pump.Cells(), animate.Options{
			Frames:    cfg.Duration,
			Interval:  cfg.FrameInterval(),
			PhaseStep: cfg.Spread,
			BasePhase: phase,
			Rows:      pump.Position().Line,
		})
		if err != nil {
			_ = pump.Finalize()
			return err
		}
	}

	if err := pump.Finalize(); err != nil {
		return err
	}
	if openFailures > 0 {
		return prismerr.Newf(prismerr.ErrSourceOpen, "%d input file(s) could not be read", openFailures)
	}
	return nil
}

// describeOpenError mirrors the classic cat(1) phrasing.
func describeOpenError(path string, err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("prism: %s: No such file or directory", path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Sprintf("prism: %s: Permission denied", path)
	case errors.Is(err, syscall.EISDIR):
		return fmt.Sprintf("prism: %s: Is a directory", path)
	default:
		return fmt.Sprintf("prism: %s: %v", path, err)
	}
}

// rainbowHelp renders the standard help text through the colorizer, in
// a wide, slow gradient that reads well on a static page. Coloring is
// forced so help stays colorful under a pager, but NO_COLOR and
// --no-color still win.
func rainbowHelp(cmd *cobra.Command, noColor bool) {
	text := cmd.UsageString()
	if cmd.Long != "" {
		text = cmd.Long + "\n\n" + text
	}

	mode := terminal.Detect(os.Stdout, terminal.DetectOptions{NoColor: noColor, Force: true})
	if mode == terminal.ModeDisabled {
		cmd.Print(text)
		return
	}

	guard := stream.NewPipeGuard(colorable.NewColorableStdout())
	pump := stream.NewPump(guard, stream.Options{
		Mode:   mode,
		Spread: 8.0,
		Freq:   0.3,
		Phase:  rainbow.Phase(0),
	})
	if err := pump.Run(context.Background(), strings.NewReader(text)); err != nil {
		cmd.Print(text)
		return
	}
	_ = pump.Finalize()
}
