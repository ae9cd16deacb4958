// Package terminal resolves the color capability of the output terminal
// and encodes gradient colors as ANSI escape sequences for the resolved
// capability level.
package terminal

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorMode is the color capability resolved for a run. It is computed
// once at startup and never re-detected mid-stream.
type ColorMode int

const (
	// ModeDisabled emits no escape sequences at all; output bytes equal
	// input bytes.
	ModeDisabled ColorMode = iota
	// Mode256 quantizes colors to the 256-entry xterm palette.
	Mode256
	// ModeTrueColor emits 24-bit foreground/background sequences.
	ModeTrueColor
)

// String returns the string representation of the mode.
func (m ColorMode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case Mode256:
		return "256color"
	case ModeTrueColor:
		return "truecolor"
	default:
		return "unknown"
	}
}

// ParseMode parses a string into a ColorMode value.
func ParseMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "disabled", "off", "none":
		return ModeDisabled, nil
	case "256", "256color", "ansi256":
		return Mode256, nil
	case "truecolor", "24bit":
		return ModeTrueColor, nil
	default:
		return ModeDisabled, fmt.Errorf("unknown color mode: %s", s)
	}
}

// DetectOptions carries the explicit user overrides for capability
// detection.
type DetectOptions struct {
	// NoColor disables coloring unconditionally.
	NoColor bool
	// Force enables coloring even when output is not a terminal.
	Force bool
	// TrueColor forces 24-bit output regardless of detected capability.
	TrueColor bool
}

// Detect resolves the color mode for the given output stream. Resolution
// order: an explicit disable always wins, then the interactive-terminal
// check (which Force bypasses), then the truecolor override, then the
// COLORTERM-derived capability. Environment signals are read here once;
// callers keep the result for the whole run.
func Detect(out *os.File, opts DetectOptions) ColorMode {
	if opts.NoColor || os.Getenv("NO_COLOR") != "" {
		return ModeDisabled
	}

	// Piped or redirected output stays uncolored unless forced.
	if !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd()) && !opts.Force {
		return ModeDisabled
	}

	if opts.TrueColor {
		return ModeTrueColor
	}

	if termenv.EnvColorProfile() == termenv.TrueColor {
		return ModeTrueColor
	}
	return Mode256
}
