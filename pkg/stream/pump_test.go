package stream_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"
	"unicode/utf8"

	"github.com/arthur-debert/prism/pkg/rainbow"
	"github.com/arthur-debert/prism/pkg/stream"
	"github.com/arthur-debert/prism/pkg/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitOpts pins spread=1, freq=1, phase=0 so character i gets exactly
// rainbow.Color(i, 0, 1, 1) and expected output is easy to compute.
var unitOpts = stream.Options{
	Mode:   terminal.ModeTrueColor,
	Spread: 1.0,
	Freq:   1.0,
	Phase:  0,
}

// render pumps the inputs as consecutive sources and finalizes.
func render(t *testing.T, opts stream.Options, inputs ...string) (string, *stream.Pump) {
	t.Helper()
	var buf bytes.Buffer
	pump := stream.NewPump(stream.NewPipeGuard(&buf), opts)
	for _, in := range inputs {
		require.NoError(t, pump.Run(context.Background(), strings.NewReader(in)))
	}
	require.NoError(t, pump.Finalize())
	return buf.String(), pump
}

// colored returns the exact escape-plus-payload unit for rune r at
// character index i under unitOpts.
func colored(i int, r rune) string {
	b := terminal.AppendColor(nil, rainbow.Color(i, 0, 1.0, 1.0), terminal.ModeTrueColor, false)
	return string(utf8.AppendRune(b, r))
}

func TestPumpColorsEachCharacter(t *testing.T) {
	got, pump := render(t, unitOpts, "AB\n")

	want := colored(0, 'A') + colored(1, 'B') + "\n" + terminal.Reset
	assert.Equal(t, want, got)

	assert.Equal(t, stream.Position{CharIndex: 2, Line: 1, Column: 0}, pump.Position())
}

func TestPumpDisabledModeIsIdentity(t *testing.T) {
	// Tabs, invalid UTF-8 and embedded escapes all survive untouched.
	input := "plain\ttext\n\xff\xfemore\x1b[31mred\n"
	opts := stream.Options{Mode: terminal.ModeDisabled, Spread: 3.0, Freq: 0.1}

	got, _ := render(t, opts, input)

	assert.Equal(t, input, got)
}

func TestPumpPositionSpansSources(t *testing.T) {
	got, pump := render(t, unitOpts, "A", "B")

	want := colored(0, 'A') + colored(1, 'B') + terminal.Reset
	assert.Equal(t, want, got)
	assert.Equal(t, 2, pump.Position().CharIndex)
}

func TestPumpCarriesSplitRunesAcrossReads(t *testing.T) {
	input := "héllo wörld\n"

	var whole bytes.Buffer
	pump := stream.NewPump(stream.NewPipeGuard(&whole), unitOpts)
	require.NoError(t, pump.Run(context.Background(), strings.NewReader(input)))
	require.NoError(t, pump.Finalize())

	var split bytes.Buffer
	pump = stream.NewPump(stream.NewPipeGuard(&split), unitOpts)
	// One byte per read: every multibyte rune gets split mid-sequence.
	require.NoError(t, pump.Run(context.Background(), iotest.OneByteReader(strings.NewReader(input))))
	require.NoError(t, pump.Finalize())

	assert.Equal(t, whole.String(), split.String())
}

func TestPumpInvalidBytesPassThroughUncolored(t *testing.T) {
	got, _ := render(t, unitOpts, "\xffA")

	// The invalid byte is forwarded as-is and does not consume a
	// character index.
	want := "\xff" + colored(0, 'A') + terminal.Reset
	assert.Equal(t, want, got)
}

func TestPumpIncompleteRuneAtEOFIsDrained(t *testing.T) {
	// First byte of a two-byte sequence, then the source ends.
	got, _ := render(t, unitOpts, "\xc3")

	assert.Equal(t, "\xc3"+terminal.Reset, got)
}

func TestPumpExpandsTabs(t *testing.T) {
	got, _ := render(t, unitOpts, "\tX")

	var want strings.Builder
	for i := 0; i < 8; i++ {
		want.WriteString(colored(i, ' '))
	}
	want.WriteString(colored(8, 'X'))
	want.WriteString(terminal.Reset)
	assert.Equal(t, want.String(), got)
}

func TestPumpForwardsEmbeddedEscapes(t *testing.T) {
	got, _ := render(t, unitOpts, "\x1b[31mX\x1b]0;title\x07Y")

	want := "\x1b[31m" + colored(0, 'X') + "\x1b]0;title\x07" + colored(1, 'Y') + terminal.Reset
	assert.Equal(t, want, got)
}

func TestPumpNewlineIsNeverWrapped(t *testing.T) {
	got, _ := render(t, unitOpts, "A\nB\n")

	// Each newline byte is adjacent to the previous payload with no
	// escape introducer in between.
	assert.Contains(t, got, "A\n\x1b")
	assert.Contains(t, got, "B\n")
}

func TestPumpRecordsCells(t *testing.T) {
	opts := unitOpts
	opts.Record = true
	_, pump := render(t, opts, "A\nB")

	cells := pump.Cells()
	require.Len(t, cells, 3)

	assert.Equal(t, 'A', cells[0].Rune)
	assert.Equal(t, stream.Position{CharIndex: 0, Line: 0, Column: 0}, cells[0].Pos)
	assert.False(t, cells[0].Passthrough())

	assert.True(t, cells[1].Passthrough())
	assert.Equal(t, []byte("\n"), cells[1].Raw)

	assert.Equal(t, 'B', cells[2].Rune)
	assert.Equal(t, stream.Position{CharIndex: 1, Line: 1, Column: 0}, cells[2].Pos)
}

func TestPumpInvalidByteDuringEscapeCaptureKeepsOrder(t *testing.T) {
	// The invalid byte lands mid-capture; the partial sequence must
	// reach the output before it, and the capture restarts cleanly.
	got, _ := render(t, unitOpts, "\x1b[3\xff1m")

	want := "\x1b[3" + "\xff" + colored(0, '1') + colored(1, 'm') + terminal.Reset
	assert.Equal(t, want, got)
}

func TestPumpContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	pump := stream.NewPump(stream.NewPipeGuard(&buf), unitOpts)
	err := pump.Run(ctx, strings.NewReader("data"))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// stallReader signals when Read is entered and then blocks until
// released, modelling an interactive stdin with no bytes to give.
type stallReader struct {
	entered chan struct{}
	release chan struct{}
}

func (r *stallReader) Read(p []byte) (int, error) {
	select {
	case r.entered <- struct{}{}:
	default:
	}
	<-r.release
	return 0, io.EOF
}

func TestPumpCancellationUnblocksStalledRead(t *testing.T) {
	src := &stallReader{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	defer close(src.release)

	var buf bytes.Buffer
	pump := stream.NewPump(stream.NewPipeGuard(&buf), unitOpts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- pump.Run(ctx, src)
	}()

	// Wait until the source is actually blocked inside Read, then
	// cancel; Run must return without the read ever completing.
	<-src.entered
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation while blocked in Read")
	}
}

func TestRendererReplaysRecordedCellAtNewPhase(t *testing.T) {
	opts := unitOpts
	opts.Record = true
	_, pump := render(t, opts, "A")

	cell := pump.Cells()[0]
	rend := pump.Renderer()

	atZero := rend.AppendCell(nil, cell, 0)
	atPi := rend.AppendCell(nil, cell, 3.14159)

	assert.Equal(t, colored(0, 'A'), string(atZero))
	assert.NotEqual(t, string(atZero), string(atPi))
}
